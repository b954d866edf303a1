//go:build !llama || no_llama

package llamacpp

import (
	"fmt"

	"github.com/mhpenta/genpipe"
)

// Available reports whether llama.cpp is compiled in.
const Available = false

func load(genpipe.LocalConfig) (genpipe.LocalModel, error) {
	return nil, fmt.Errorf("%w: llama.cpp not available in this build", genpipe.ErrLocalUnavailable)
}
