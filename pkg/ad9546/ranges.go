package ad9546

import "github.com/OpenTraceLab/ad954x/pkg/regmap"

// DumpRanges lists the address blocks of a full register dump, bounds
// inclusive. It covers the whole documented register space, not just the
// fields of the declaration.
var DumpRanges = []regmap.Range{
	{Start: 0x0000, End: 0x0001},
	{Start: 0x0003, End: 0x0006},
	{Start: 0x000B, End: 0x000D},
	{Start: 0x000F, End: 0x0010},
	{Start: 0x0020, End: 0x0023},
	{Start: 0x0100, End: 0x011F},
	{Start: 0x0182, End: 0x0188},
	{Start: 0x0200, End: 0x0209},
	{Start: 0x0280, End: 0x029C},
	{Start: 0x0300, End: 0x0307},
	{Start: 0x030A, End: 0x030B},
	{Start: 0x030E, End: 0x030F},
	{Start: 0x0400, End: 0x0414},
	{Start: 0x0420, End: 0x0434},
	{Start: 0x0440, End: 0x0454},
	{Start: 0x0460, End: 0x0474},
	{Start: 0x0480, End: 0x0494},
	{Start: 0x04A0, End: 0x04B4},
	{Start: 0x04C0, End: 0x04D4},
	{Start: 0x04E0, End: 0x04F4},
	{Start: 0x0800, End: 0x0811},
	{Start: 0x0820, End: 0x0831},
	{Start: 0x0840, End: 0x0851},
	{Start: 0x0860, End: 0x0871},
	{Start: 0x0880, End: 0x0891},
	{Start: 0x08A0, End: 0x08B1},
	{Start: 0x08C0, End: 0x08D1},
	{Start: 0x08E0, End: 0x08F1},
	{Start: 0x0900, End: 0x0911},
	{Start: 0x0920, End: 0x0931},
	{Start: 0x0940, End: 0x0951},
	{Start: 0x0960, End: 0x0971},
	{Start: 0x0980, End: 0x0991},
	{Start: 0x09A0, End: 0x09B1},
	{Start: 0x0C00, End: 0x0C17},
	{Start: 0x0D00, End: 0x0D05},
	{Start: 0x0D10, End: 0x0D1D},
	{Start: 0x0D20, End: 0x0D2D},
	{Start: 0x0D30, End: 0x0D3C},
	{Start: 0x0D40, End: 0x0D40},
	{Start: 0x0E00, End: 0x0E3A},
	{Start: 0x0F00, End: 0x0F15},
	{Start: 0x1000, End: 0x102B},
	{Start: 0x1080, End: 0x1083},
	{Start: 0x10C0, End: 0x10DC},
	{Start: 0x1100, End: 0x1135},
	{Start: 0x1200, End: 0x1217},
	{Start: 0x1220, End: 0x1237},
	{Start: 0x1240, End: 0x1257},
	{Start: 0x1260, End: 0x1277},
	{Start: 0x1280, End: 0x1297},
	{Start: 0x12A0, End: 0x12B7},
	{Start: 0x1400, End: 0x142B},
	{Start: 0x1480, End: 0x1483},
	{Start: 0x14C0, End: 0x14C9},
	{Start: 0x14CE, End: 0x14D0},
	{Start: 0x14D2, End: 0x14D4},
	{Start: 0x14D6, End: 0x14D8},
	{Start: 0x14DA, End: 0x14DC},
	{Start: 0x1500, End: 0x1523},
	{Start: 0x1600, End: 0x1617},
	{Start: 0x1620, End: 0x1637},
	{Start: 0x1640, End: 0x1657},
	{Start: 0x1660, End: 0x1677},
	{Start: 0x1680, End: 0x1697},
	{Start: 0x16A0, End: 0x16B7},
	{Start: 0x2000, End: 0x2019},
	{Start: 0x2100, End: 0x2107},
	{Start: 0x2200, End: 0x2203},
	{Start: 0x2205, End: 0x2207},
	{Start: 0x2800, End: 0x281E},
	{Start: 0x2840, End: 0x285E},
	{Start: 0x2900, End: 0x2906},
	{Start: 0x2A00, End: 0x2A1A},
	{Start: 0x2C00, End: 0x2C07},
	{Start: 0x2D00, End: 0x2D02},
	{Start: 0x2D08, End: 0x2D0A},
	{Start: 0x2E00, End: 0x2E03},
	{Start: 0x2E10, End: 0x2E1E},
	{Start: 0x3000, End: 0x3023},
	{Start: 0x3100, End: 0x310E},
	{Start: 0x3200, End: 0x320E},
	{Start: 0x3A00, End: 0x3A3B},
}

// DumpSize returns the number of bytes covered by ranges.
func DumpSize(ranges []regmap.Range) int {
	n := 0
	for _, r := range ranges {
		n += int(r.End) - int(r.Start) + 1
	}
	return n
}
