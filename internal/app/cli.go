package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: http or stdio")
	flags.StringP("host", "H", "", "Host for HTTP transport")
	flags.IntP("port", "p", 0, "Port for HTTP transport")
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.StringSlice("corpus", nil, "Corpus sources: JSON/YAML files or directories (comma-separated)")
	flags.StringP("engine", "e", "", "Fuzzy index engine: scan or bleve")
	flags.Float64("threshold", 0, "Match threshold in (0, 1]; lower is stricter")
	flags.IntP("max-results", "n", 0, "Maximum results per query")
	flags.StringP("documents-dir", "d", "", "Directory of source documents for summaries and downloads")
	flags.String("llm-provider", "", "Summary generator: googleai, openai, extractive or echo")
	flags.String("llm-model", "", "Model name for hosted summary providers")
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	flags.BoolP("watch", "w", false, "Reload the corpus when source files change")
}

// RegisterConvertFlags registers the flags of the convert command
func RegisterConvertFlags(flags *pflag.FlagSet) {
	flags.StringP("output", "o", "", "Output JSON file (default: stdout)")
	flags.Int("id-offset", 0, "Added to page numbers to form record ids")
	flags.String("title", "", "Title stored on every record (default: input file name)")
}
