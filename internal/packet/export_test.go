package packet

import (
	"image"

	"github.com/kpauljoseph/listingpacket/pkg/logger"
)

func NewRasterRebuilderWithEncoder(dpi float64, log *logger.Logger, encode func(image.Image) ([]byte, error)) *RasterRebuilder {
	return &RasterRebuilder{dpi: dpi, encode: encode, logger: log}
}
