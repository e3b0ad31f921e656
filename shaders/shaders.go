// Package shaders holds the embedded WGSL stage sources. The sources expect
// the subpass shader variant to prepend const definitions for
// MAX_LIGHT_COUNT and the light type tags; see render.LightTypeDefinitions.
package shaders

import (
	_ "embed"
)

//go:embed forward_vert.wgsl
var ForwardVertWGSL string

//go:embed forward_frag.wgsl
var ForwardFragWGSL string

//go:embed lighting_vert.wgsl
var LightingVertWGSL string

//go:embed lighting_frag.wgsl
var LightingFragWGSL string
