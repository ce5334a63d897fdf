package sink

import (
	"encoding/json"

	"github.com/matzehuels/spacetime/pkg/render/scene"
)

// RenderJSON exports the scene as indented JSON. Speeds and times are
// preformatted strings, so degenerate values never fail to encode.
func RenderJSON(s scene.Scene) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
