package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// CLI holds the options of the mcqgest command on top of the env Config.
type CLI struct {
	Config

	Input   string
	Formats []string
	OutDir  string
	Base    string
	Preview bool
}

// ParseFlags overlays command-line flags on base. It uses its own FlagSet so it can be
// called repeatedly from tests.
func ParseFlags(args []string, base Config, stderr io.Writer) (*CLI, error) {
	fs := flag.NewFlagSet("mcqgest", flag.ContinueOnError)
	fs.SetOutput(stderr)

	input := fs.String("in", "", "Image or PDF file to extract MCQs from (required)")
	formats := fs.String("formats", "csv,json", "Comma-separated export formats")
	outDir := fs.String("out", ".", "Directory for exported files")
	baseName := fs.String("name", "", "Base file name for exports (default: input file name)")
	preview := fs.Bool("preview", false, "Print the extracted table to stdout")
	chunkLen := fs.Int("chunk-len", base.ChunkMaxLen, "Maximum characters per completion request")
	continueOnError := fs.Bool("continue-on-error", base.ContinueOnError, "Keep going when a chunk fails and report it")
	provider := fs.String("provider", base.LLMProvider, "Completion provider: groq, openai or anthropic")
	model := fs.String("model", base.LLMModel, "Model name (default depends on provider)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n\n")
		fmt.Fprintf(stderr, "\tmcqgest -in <file> [-formats csv,json,pdf,docx] [flags]\n\n")
		fmt.Fprintf(stderr, "Flags:\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cli := &CLI{
		Config:  base,
		Input:   *input,
		OutDir:  *outDir,
		Base:    *baseName,
		Preview: *preview,
		Formats: splitFormats(*formats),
	}
	cli.ChunkMaxLen = *chunkLen
	cli.ContinueOnError = *continueOnError
	if p := strings.ToLower(*provider); p != base.LLMProvider {
		cli.LLMProvider = p
		cli.LLMAPIKey = envOr("LLM_API_KEY", providerKey(p))
	}
	cli.LLMModel = *model
	cli.applyDefaults()

	if err := cli.Validate(); err != nil {
		return nil, err
	}
	return cli, nil
}

// Validate checks the CLI options and the completion settings.
func (c *CLI) Validate() error {
	if c.Input == "" {
		return errors.New("missing required flag: -in")
	}
	if len(c.Formats) == 0 {
		return errors.New("at least one export format is required")
	}
	return c.ValidateLLM()
}

func splitFormats(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
