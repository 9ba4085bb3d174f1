package generator

import "errors"

// ErrNoImageData は Image Oracle の応答に画像データが含まれていないことを示します。
var ErrNoImageData = errors.New("could not generate the image: response contained no image data")
