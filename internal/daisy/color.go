package daisy

import (
	"fmt"
	"strconv"
)

// The backend encodes light color and brightness as one fixed-width string,
// A%03dR%03dG%03dB%03d, used identically in COLOR status values and COLOR
// command parameters (round-trip format).
const colorStringLen = 16

// encodeColor builds the fixed-width color string. Brightness must be in
// [0, 100] and every channel in [0, 255]; violations are ErrInvalidParameter
// and nothing is sent on the wire.
func encodeColor(brightness int, rgb RGB) (string, error) {
	if brightness < 0 || brightness > 100 {
		return "", fmt.Errorf("%w: brightness must be between 0 and 100, got %d",
			ErrInvalidParameter, brightness)
	}
	for _, c := range [3]int{rgb.R, rgb.G, rgb.B} {
		if c < 0 || c > 255 {
			return "", fmt.Errorf("%w: color channel must be between 0 and 255, got %d",
				ErrInvalidParameter, c)
		}
	}
	return fmt.Sprintf("A%03dR%03dG%03dB%03d", brightness, rgb.R, rgb.G, rgb.B), nil
}

// decodeColor parses a fixed-width color string into brightness and RGB.
func decodeColor(value string) (int, RGB, error) {
	if len(value) != colorStringLen {
		return 0, RGB{}, fmt.Errorf("daisy: malformed color value %q", value)
	}

	fields := [4]int{}
	for i, pos := range [4]int{1, 5, 9, 13} {
		n, err := strconv.Atoi(value[pos : pos+3])
		if err != nil {
			return 0, RGB{}, fmt.Errorf("daisy: malformed color value %q: %w", value, err)
		}
		fields[i] = n
	}

	return fields[0], RGB{R: fields[1], G: fields[2], B: fields[3]}, nil
}
