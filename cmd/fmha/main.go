// main.go - CLI fuer Launch-Planung und Umgebungs-Inspektion
// Hauptfunktionen: NewCLI, planHandler, envHandler
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KnightAsterial/cuda-shared-attention/envconfig"
	"github.com/KnightAsterial/cuda-shared-attention/fmha"
	"github.com/KnightAsterial/cuda-shared-attention/ml"
)

func parseDType(s string) (ml.DType, error) {
	switch s {
	case "f16", "float16":
		return ml.DTypeF16, nil
	case "bf16", "bfloat16":
		return ml.DTypeBF16, nil
	}
	return ml.DTypeOther, fmt.Errorf("unsupported dtype %q (want f16 or bf16)", s)
}

func planHandler(cmd *cobra.Command, args []string) error {
	batch, _ := cmd.Flags().GetInt("batch")
	heads, _ := cmd.Flags().GetInt("heads")
	headSize, _ := cmd.Flags().GetInt("head-size")
	maxSeqLen, _ := cmd.Flags().GetInt("max-seq-len")
	total, _ := cmd.Flags().GetInt("total")
	dropout, _ := cmd.Flags().GetFloat32("dropout")
	captureProbs, _ := cmd.Flags().GetBool("capture-probs")
	dtypeName, _ := cmd.Flags().GetString("dtype")

	dtype, err := parseDType(dtypeName)
	if err != nil {
		return err
	}
	if total == 0 {
		total = batch * maxSeqLen
	}

	drop, err := fmha.EncodeDropout(dropout)
	if err != nil {
		return err
	}

	tiling := fmha.ChooseTiling(maxSeqLen, headSize)

	fmt.Printf("tile bound:     %d (base %d)\n", tiling.SeqLen, tiling.Base)
	fmt.Printf("loop mode:      %v\n", tiling.Loop)
	fmt.Printf("softmax scale:  %v (default for head size %d)\n", fmha.DefaultSoftmaxScale(headSize), headSize)
	fmt.Printf("keep prob:      %v (u32 %#08x, u16 %#04x, rescale %v)\n\n",
		drop.Keep, drop.KeepUint32, drop.KeepUint16, drop.Rescale)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"BUFFER", "DTYPE", "SHAPE", "BYTES"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	var totalBytes int
	for _, spec := range fmha.PlanBuffers(dtype, batch, total, heads, headSize, tiling, captureProbs) {
		table.Append([]string{spec.Name, spec.DType.String(), fmt.Sprintf("%v", spec.Shape), strconv.Itoa(spec.Bytes())})
		totalBytes += spec.Bytes()
	}
	table.Append([]string{"total", "", "", strconv.Itoa(totalBytes)})
	table.Render()

	return nil
}

func envHandler(cmd *cobra.Command, args []string) error {
	envMap := envconfig.AsMap()
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	for _, k := range keys {
		e := envMap[k]
		table.Append([]string{e.Name, fmt.Sprintf("%v", e.Value), e.Description})
	}
	table.Render()

	return nil
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "fmha",
		Short:         "Fused multi-head attention launch planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the launch plan for a batch geometry",
		RunE:  planHandler,
	}
	planCmd.Flags().Int("batch", 1, "Number of sequences in the batch")
	planCmd.Flags().Int("heads", 16, "Number of attention heads")
	planCmd.Flags().Int("head-size", 64, "Head size (16, 32, 64 or 128)")
	planCmd.Flags().Int("max-seq-len", 512, "Longest sequence in the batch")
	planCmd.Flags().Int("total", 0, "Total token count (default batch*max-seq-len)")
	planCmd.Flags().Float32("dropout", 0, "Dropout probability in [0, 1)")
	planCmd.Flags().Bool("capture-probs", false, "Plan the full attention probability buffer")
	planCmd.Flags().String("dtype", "f16", "I/O element type (f16 or bf16)")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "List environment variables and their current values",
		RunE:  envHandler,
	}

	rootCmd.AddCommand(planCmd, envCmd)

	return rootCmd
}

func main() {
	slog.SetLogLoggerLevel(envconfig.LogLevel())

	if err := NewCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
