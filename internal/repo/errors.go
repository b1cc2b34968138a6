package repo

import "fmt"

// ConfigError is fatal and aborts the run before any project is touched.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("configuration error: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// UpstreamError marks one project whose listing or downloading failed after
// retries. It isolates to that project; the run continues.
type UpstreamError struct {
	Repo string
	Err  error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("upstream %s: %v", e.Repo, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// ToolError marks an external tool (metadata generator, signer) exiting
// non-zero. A repository without valid metadata is unusable, so these are
// fatal to the run.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string { return fmt.Sprintf("%s: %v", e.Tool, e.Err) }
func (e *ToolError) Unwrap() error { return e.Err }
