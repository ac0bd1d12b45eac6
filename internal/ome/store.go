package ome

// MetadataStore is the read side of the metadata document consumed by the
// plane mapping code. Index arguments are zero-based; accessors that can be
// absent return ok=false.
type MetadataStore interface {
	ImageCount() int
	ImageID(image int) string
	ImageName(image int) string

	PixelsSizeX(image int) int
	PixelsSizeY(image int) int
	PixelsSizeZ(image int) int
	PixelsSizeC(image int) int
	PixelsSizeT(image int) int
	PixelsDimensionOrder(image int) string
	PixelsType(image int) string

	ChannelCount(image int) int
	ChannelName(image, channel int) string
	ChannelSamplesPerPixel(image, channel int) (int, bool)

	TiffDataCount(image int) int
	TiffDataFirstZ(image, td int) (int, bool)
	TiffDataFirstC(image, td int) (int, bool)
	TiffDataFirstT(image, td int) (int, bool)
	TiffDataIFD(image, td int) (int, bool)
	TiffDataPlaneCount(image, td int) (int, bool)
	UUIDValue(image, td int) (string, bool)
	UUIDFileName(image, td int) (string, bool)

	DocumentUUID() string
	PlateCount() int
}

var _ MetadataStore = (*Document)(nil)

func (d *Document) pixels(image int) *Pixels {
	if image < 0 || image >= len(d.Images) {
		return nil
	}
	return &d.Images[image].Pixels
}

func (d *Document) tiffData(image, td int) *TiffData {
	p := d.pixels(image)
	if p == nil || td < 0 || td >= len(p.TiffData) {
		return nil
	}
	return &p.TiffData[td]
}

func optional(v *int) (int, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func (d *Document) ImageCount() int { return len(d.Images) }

func (d *Document) ImageID(image int) string {
	if image < 0 || image >= len(d.Images) {
		return ""
	}
	return d.Images[image].ID
}

func (d *Document) ImageName(image int) string {
	if image < 0 || image >= len(d.Images) {
		return ""
	}
	return d.Images[image].Name
}

func (d *Document) PixelsSizeX(image int) int {
	if p := d.pixels(image); p != nil {
		return p.SizeX
	}
	return 0
}

func (d *Document) PixelsSizeY(image int) int {
	if p := d.pixels(image); p != nil {
		return p.SizeY
	}
	return 0
}

func (d *Document) PixelsSizeZ(image int) int {
	if p := d.pixels(image); p != nil {
		return p.SizeZ
	}
	return 0
}

func (d *Document) PixelsSizeC(image int) int {
	if p := d.pixels(image); p != nil {
		return p.SizeC
	}
	return 0
}

func (d *Document) PixelsSizeT(image int) int {
	if p := d.pixels(image); p != nil {
		return p.SizeT
	}
	return 0
}

func (d *Document) PixelsDimensionOrder(image int) string {
	if p := d.pixels(image); p != nil {
		return p.DimensionOrder
	}
	return ""
}

func (d *Document) PixelsType(image int) string {
	if p := d.pixels(image); p != nil {
		return p.Type
	}
	return ""
}

func (d *Document) ChannelCount(image int) int {
	if p := d.pixels(image); p != nil {
		return len(p.Channels)
	}
	return 0
}

func (d *Document) ChannelName(image, channel int) string {
	p := d.pixels(image)
	if p == nil || channel < 0 || channel >= len(p.Channels) {
		return ""
	}
	return p.Channels[channel].Name
}

func (d *Document) ChannelSamplesPerPixel(image, channel int) (int, bool) {
	p := d.pixels(image)
	if p == nil || channel < 0 || channel >= len(p.Channels) {
		return 0, false
	}
	spp := p.Channels[channel].SamplesPerPixel
	return spp, spp > 0
}

func (d *Document) TiffDataCount(image int) int {
	if p := d.pixels(image); p != nil {
		return len(p.TiffData)
	}
	return 0
}

func (d *Document) TiffDataFirstZ(image, td int) (int, bool) {
	if t := d.tiffData(image, td); t != nil {
		return optional(t.FirstZ)
	}
	return 0, false
}

func (d *Document) TiffDataFirstC(image, td int) (int, bool) {
	if t := d.tiffData(image, td); t != nil {
		return optional(t.FirstC)
	}
	return 0, false
}

func (d *Document) TiffDataFirstT(image, td int) (int, bool) {
	if t := d.tiffData(image, td); t != nil {
		return optional(t.FirstT)
	}
	return 0, false
}

func (d *Document) TiffDataIFD(image, td int) (int, bool) {
	if t := d.tiffData(image, td); t != nil {
		return optional(t.IFD)
	}
	return 0, false
}

func (d *Document) TiffDataPlaneCount(image, td int) (int, bool) {
	if t := d.tiffData(image, td); t != nil {
		return optional(t.PlaneCount)
	}
	return 0, false
}

func (d *Document) UUIDValue(image, td int) (string, bool) {
	t := d.tiffData(image, td)
	if t == nil || t.UUID == nil || t.UUID.Value == "" {
		return "", false
	}
	return t.UUID.Value, true
}

func (d *Document) UUIDFileName(image, td int) (string, bool) {
	t := d.tiffData(image, td)
	if t == nil || t.UUID == nil || t.UUID.FileName == "" {
		return "", false
	}
	return t.UUID.FileName, true
}

func (d *Document) DocumentUUID() string { return d.UUID }

func (d *Document) PlateCount() int { return len(d.Plates) }

// SetTiffData replaces the TiffData list of an image.
func (d *Document) SetTiffData(image int, tds []TiffData) {
	if p := d.pixels(image); p != nil {
		p.TiffData = tds
	}
}

// SetPixelsSizes overwrites the Pixels geometry of an image.
func (d *Document) SetPixelsSizes(image, x, y, z, c, t int) {
	if p := d.pixels(image); p != nil {
		p.SizeX, p.SizeY, p.SizeZ, p.SizeC, p.SizeT = x, y, z, c, t
	}
}

// SetPixelsDimensionOrder overwrites the dimension order of an image.
func (d *Document) SetPixelsDimensionOrder(image int, order string) {
	if p := d.pixels(image); p != nil {
		p.DimensionOrder = order
	}
}
