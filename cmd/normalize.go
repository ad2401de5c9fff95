package cmd

import (
	"erdv/internal/codec"
	"erdv/internal/errs"
	"fmt"

	"github.com/spf13/cobra"
)

var normalizeFlags struct {
	write  bool
	output string
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <diagram.json>",
	Short: "Repair a legacy diagram file",
	Long: `Loads a diagram, fills in missing physical names, geometry and canvas
size, and prints the normalized JSON. With --write the file is rewritten in
place; with --output the result goes to another .json file.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().BoolVar(&normalizeFlags.write, "write", false, "Rewrite the input file")
	normalizeCmd.Flags().StringVarP(&normalizeFlags.output, "output", "o", "", "Write the result to this .json file")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	if normalizeFlags.write && normalizeFlags.output != "" {
		return errs.New(errs.KindInvalidInput, "--write and --output cannot be combined")
	}

	ctx := cmd.Context()
	ws, st, err := cliWorkspace(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := ws.LoadDiagram(ctx, args[0])
	if err != nil {
		return err
	}

	target := normalizeFlags.output
	if normalizeFlags.write {
		target = res.FilePath
	}
	if target == "" {
		data, err := codec.Serialize(res.Diagram)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	where, err := ws.SaveDiagram(ctx, target, res.Diagram)
	if err != nil {
		return err
	}
	log.With().Str("path", where).Logger().Info("diagram normalized")
	return nil
}
