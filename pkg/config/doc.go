/*
Package config loads pipeline definition files.

	            +-------------+
	            |   Config    |
	            | (Pipeline)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Reads the ordered step list and per-step options
- Selects a parser by file extension
- Validates and resolves paths relative to the file

📄 Fields:
- sources: directories of operation manifests, later ones shadow earlier ones
- inputs: doublestar globs selecting the files to process
- steps: ordered name and options pairs
- overwrite: replace originals on finalize instead of writing a suffixed copy
- suffix: fixed suffix for suffixed copies, random per file when empty
- concurrency: how many files are processed at once, 0 for no limit
- keep_versions: leave working directories in place and skip finalize

🔍 Example:

	cfg, err := config.Load(ctx, "pipeline.yaml")
	if err != nil {
		return err
	}
	p, err := pipeline.FromConfig(ctx, cfg, operation.NewDefaultRegistry())
*/
package config
