package sim

// FPSCounter counts frames over one-second windows.
type FPSCounter struct {
	elapsed float64
	frames  int
	fps     int
}

// Tick records a frame that took delta seconds and returns the rate of the
// last complete window.
func (c *FPSCounter) Tick(delta float64) int {
	c.elapsed += delta
	c.frames++
	if c.elapsed >= 1 {
		c.fps = c.frames
		c.frames = 0
		c.elapsed = 0
	}
	return c.fps
}

func (c *FPSCounter) FPS() int { return c.fps }

func (c *FPSCounter) Reset() { *c = FPSCounter{} }
