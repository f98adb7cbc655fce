package hardware

import "strings"

// hdrPixelFormats are pixel formats that indicate 10-bit (or higher) content
// requiring tone-mapping when targeted at an 8-bit output.
var hdrPixelFormats = map[string]bool{
	"yuv420p10le": true, "yuv420p10be": true,
	"yuv422p10le": true, "yuv422p10be": true,
	"yuv444p10le": true, "yuv444p10be": true,
	"yuv420p12le": true, "yuv420p12be": true,
	"yuv422p12le": true, "yuv422p12be": true,
	"yuv444p12le": true, "yuv444p12be": true,
	"p010le": true, "p010be": true,
}

// IsHighBitDepth reports whether pixFmt is 10-bit or higher.
func IsHighBitDepth(pixFmt string) bool {
	return hdrPixelFormats[strings.ToLower(pixFmt)]
}

var hdrTransfers = map[string]bool{"smpte2084": true, "arib-std-b67": true}
var hdrPrimaries = map[string]bool{"bt2020": true}

// IsTrueHDR reports whether the color metadata indicates true HDR content
// (a PQ/HLG transfer or BT.2020 primaries, either one suffices) rather than
// merely high bit depth. 10-bit content with BT.709 colors (common in
// anime/TV masters) is not true HDR.
func IsTrueHDR(colorTransfer, colorPrimaries string) bool {
	hasHDRTransfer := colorTransfer != "" && hdrTransfers[strings.ToLower(colorTransfer)]
	hasHDRPrimaries := colorPrimaries != "" && hdrPrimaries[strings.ToLower(colorPrimaries)]
	return hasHDRTransfer || hasHDRPrimaries
}

// TonemapFilter builds the zscale/tonemap filter chain converting HDR to SDR.
//
//  1. zscale=t=linear:npl=100 — linearize the transfer function (PQ/HLG -> linear)
//  2. format=gbrpf32le — 32-bit float for precision during tone-mapping
//  3. zscale=p=bt709 — convert primaries from BT.2020 to BT.709
//  4. tonemap=hable:desat=0 — Hable tone-mapping curve
//  5. zscale=t=bt709:m=bt709:r=tv — apply BT.709 transfer/matrix/range
//  6. format=yuv420p — final 8-bit 4:2:0 output
func TonemapFilter() string {
	return "zscale=t=linear:npl=100,format=gbrpf32le,zscale=p=bt709,tonemap=hable:desat=0,zscale=t=bt709:m=bt709:r=tv,format=yuv420p"
}

// BitDepthFilter converts 10-bit SDR content to 8-bit without touching
// color space, preserving BT.709 colors.
func BitDepthFilter() string {
	return "format=yuv420p"
}

// VideoFormatFilter picks the -vf filter for the given pixel format and
// color metadata, or "" when no filter is needed.
//
//   - True HDR (PQ/HLG transfer or BT.2020 primaries): full tone-mapping pipeline
//   - 10-bit SDR (BT.709 colors): simple format conversion
//   - 8-bit SDR: no filter
func VideoFormatFilter(pixelFormat, colorTransfer, colorPrimaries string) string {
	if pixelFormat == "" || !IsHighBitDepth(pixelFormat) {
		return ""
	}
	if IsTrueHDR(colorTransfer, colorPrimaries) {
		return TonemapFilter()
	}
	return BitDepthFilter()
}
