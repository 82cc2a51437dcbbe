/*
Package operation defines the pluggable file operations a pipeline applies.

	+-------------+      +-------------+      +---------------+
	|  Registry   | ---> |  Operation  | ---> |    Invoke     |
	| (lookup)    |      | (transform) |      | (capture)     |
	+-------------+      +-------------+      +-------+-------+
	                                                  |
	                                          (path, result)
	                                                  |
	                                          version.File.Admit

🎯 Purpose:
- Gives every transformation one shape: Apply(ctx, Input) (Output, error)
- Turns errors and panics into failed results with stack traces
- Removes output an operation left behind when it failed
- Resolves short names to operations through an explicit Registry

🔄 Flow:
1. A Registry resolves a step name and its options to an Operation
2. Invoke runs it against (current version, working directory, original)
3. The returned path and normalized result go to version.File.Admit

🧩 Built-ins:
- replace:    literal text replacement rules (modifying)
- compress:   zstd compression to a .zst version (modifying)
- decompress: inverse of compress (modifying)
- checksum:   blake3 digest and size (inspection)
- tags:       metadata snapshot through a metadata.Reader (inspection)

External commands are described by YAML manifests found in source
directories added with Registry.AddSource.

🔍 Example:

	reg := operation.NewDefaultRegistry()
	op, err := reg.Resolve("compress", map[string]any{"level": "best"})
	err = file.Modify(ctx, operation.Invoker(op))
*/
package operation
