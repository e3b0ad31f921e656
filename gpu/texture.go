package gpu

import (
	"fmt"
	"image"
	stddraw "image/draw"

	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/draw"
)

// toRGBA converts any decoded image to tightly packed RGBA8.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	stddraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, stddraw.Src)
	return rgba
}

func mipLevelCount(width, height int) uint32 {
	levels := uint32(1)
	for width > 1 || height > 1 {
		width = max(width/2, 1)
		height = max(height/2, 1)
		levels++
	}
	return levels
}

// NewTextureFromImage uploads an image as an RGBA8 sampled texture. With
// withMips set, a full mip chain is generated on the CPU by bilinear
// downsampling and uploaded level by level.
func NewTextureFromImage(state *State, img image.Image, label string, withMips bool) (*wgpu.TextureView, error) {
	rgba := toRGBA(img)
	width := rgba.Rect.Dx()
	height := rgba.Rect.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("texture %q: empty image", label)
	}

	levels := uint32(1)
	if withMips {
		levels = mipLevelCount(width, height)
	}

	texture, err := state.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: levels,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", label, err)
	}
	defer texture.Release()

	level := rgba
	for mip := uint32(0); mip < levels; mip++ {
		if mip > 0 {
			nextW := max(level.Rect.Dx()/2, 1)
			nextH := max(level.Rect.Dy()/2, 1)
			next := image.NewRGBA(image.Rect(0, 0, nextW, nextH))
			draw.ApproxBiLinear.Scale(next, next.Bounds(), level, level.Bounds(), draw.Src, nil)
			level = next
		}
		state.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  texture,
				MipLevel: mip,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			level.Pix,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(level.Rect.Dx()) * 4,
				RowsPerImage: uint32(level.Rect.Dy()),
			},
			&wgpu.Extent3D{
				Width:              uint32(level.Rect.Dx()),
				Height:             uint32(level.Rect.Dy()),
				DepthOrArrayLayers: 1,
			},
		)
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("texture %q view: %w", label, err)
	}
	return view, nil
}
