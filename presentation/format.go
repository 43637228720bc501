package presentation

// SelectSurfaceFormat picks the preferred format if the surface offers it anywhere in the list,
// and the first reported format otherwise. It returns ErrNoSurfaceFormats for an empty list.
func SelectSurfaceFormat(available []SurfaceFormat, preferred SurfaceFormat) (SurfaceFormat, error) {
	if len(available) == 0 {
		return SurfaceFormat{}, ErrNoSurfaceFormats
	}
	for _, af := range available {
		if af == preferred {
			return af, nil
		}
	}
	return available[0], nil
}
