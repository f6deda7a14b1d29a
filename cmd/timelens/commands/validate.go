package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/timelens/pkg/model"
)

// ErrInvalidDocument is returned when a document fails schema
// validation.
var ErrInvalidDocument = errors.New("document is not valid")

// ErrInvalidJSON is returned when the input is not parseable JSON at
// all.
var ErrInvalidJSON = errors.New("input is not valid JSON")

// ValidateCommand holds configuration for the validate command.
type ValidateCommand struct {
	schemaPath string
	colorize   bool
	nocolor    bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	vc := &ValidateCommand{}

	cmd := &cobra.Command{
		Use:   "validate <file.json|->",
		Short: "Validate a temporal document against the embedded schema",
		Long: `Validate a temporal document JSON file against the document schema.

Examples:
  timelens validate dist/temporal-data.json
  timelens validate - < dist/temporal-data.json
  timelens validate --schema custom-schema.json dist/temporal-data.json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return vc.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&vc.schemaPath, "schema", "", "path to an alternate JSON schema (default: embedded)")
	cmd.Flags().BoolVar(&vc.colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&vc.nocolor, "no-color", false, "disable colored output")

	return cmd
}

func (vc *ValidateCommand) run(cmd *cobra.Command, inputPath string) error {
	// Color setup.
	if vc.nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if vc.colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}

	out := cmd.OutOrStdout()

	inputReader, inputLabel, err := loadInput(inputPath)
	if err != nil {
		return err
	}

	var inputData any

	dec := json.NewDecoder(inputReader)
	dec.UseNumber()

	decodeErr := dec.Decode(&inputData)
	if decodeErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidJSON, inputLabel, decodeErr)
	}

	schemaLoader, err := vc.loadSchema()
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(inputData))
	if err != nil {
		return fmt.Errorf("run schema validation: %w", err)
	}

	if result.Valid() {
		if !isQuiet(cmd) {
			color.New(color.FgGreen).Fprintf(out, "Document is valid (%s)\n", inputLabel)
		}

		return nil
	}

	color.New(color.FgRed).Fprintf(out, "Document validation failed (%s)\n", inputLabel)
	fmt.Fprintf(out, "\nErrors:\n")

	for _, verr := range result.Errors() {
		color.New(color.FgRed).Fprintf(out, "  - %s: %s\n", verr.Field(), verr.Description())
	}

	return fmt.Errorf("%w: %d violations", ErrInvalidDocument, len(result.Errors()))
}

func loadInput(inputPath string) (io.Reader, string, error) {
	if inputPath == "-" {
		return os.Stdin, "stdin", nil
	}

	inputFile, err := os.Open(inputPath)
	if err != nil {
		return nil, "", fmt.Errorf("open input: %w", err)
	}

	return inputFile, inputPath, nil
}

func (vc *ValidateCommand) loadSchema() (gojsonschema.JSONLoader, error) {
	if vc.schemaPath == "" {
		schemaBytes, err := model.Schema()
		if err != nil {
			return nil, err
		}

		return gojsonschema.NewBytesLoader(schemaBytes), nil
	}

	schemaBytes, err := os.ReadFile(vc.schemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	return gojsonschema.NewBytesLoader(schemaBytes), nil
}
