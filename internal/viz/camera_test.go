package viz

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
)

func elevation(cam, center dynamo.Point3) float64 {
	return math.Abs(cam.Z-center.Z) / math.Hypot(cam.X-center.X, cam.Y-center.Y)
}

func TestZoomInFloor(t *testing.T) {
	g := NewWithT(t)
	start := testTarget.Add(dynamo.P3(0, -6, 0))

	for _, rate := range []float64{0.1, 1, 50, 1e3, 1e9} {
		for _, dt := range []float64{1e-4, 0.016, 0.5, 10} {
			cam := start
			for i := 0; i < 200; i++ {
				cam = ZoomIn(cam, testTarget, rate, dt)
				g.Expect(cam.Distance(testTarget)).To(BeNumerically(">=", MinOrbitRadius-1e-9),
					"rate=%v dt=%v iteration %d", rate, dt, i)
			}
		}
	}
}

func TestZoomInRefusedInsideFloor(t *testing.T) {
	g := NewWithT(t)
	cam := testTarget.Add(dynamo.P3(0, -4, 0))
	g.Expect(ZoomIn(cam, testTarget, 50, 0.1)).To(Equal(cam))
}

func TestZoomInMovesCloser(t *testing.T) {
	g := NewWithT(t)
	cam := ZoomIn(testCamera, testTarget, 50, 0.02)

	// dist * dist/(dist+1)
	g.Expect(cam.Distance(testTarget)).To(BeNumerically("~", 70.0*70.0/71.0, 1e-9))
	g.Expect(cam.X).To(BeNumerically("~", testTarget.X, 1e-12))
	g.Expect(cam.Z).To(BeNumerically("~", testTarget.Z, 1e-12))
}

func TestZoomOut(t *testing.T) {
	g := NewWithT(t)

	cam := ZoomOut(testCamera, testTarget, 50, 0.02)
	g.Expect(cam.Distance(testTarget)).To(BeNumerically("~", 70.0*70.0/69.0, 1e-9))

	g.Expect(ZoomOut(testCamera, testTarget, 50, 10)).To(Equal(testCamera), "step beyond distance is ignored")
	g.Expect(ZoomOut(testCamera, testTarget, 0, 1)).To(Equal(testCamera))
	g.Expect(ZoomOut(testTarget, testTarget, 50, 0.1)).To(Equal(testTarget))
}

func TestOrbitHorizontalKeepsRadiusAndHeight(t *testing.T) {
	g := NewWithT(t)

	for _, dx := range []float64{1, -37, 250, 1000} {
		cam, err := Orbit(testCamera, testTarget, dx, 0, DefaultPPR)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(cam.Distance(testTarget)).To(BeNumerically("~", 70, 1e-9))
		g.Expect(cam.Z).To(BeNumerically("~", testCamera.Z, 1e-12))
	}

	full, err := Orbit(testCamera, testTarget, 2*math.Pi*DefaultPPR, 0, DefaultPPR)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(full.Distance(testCamera)).To(BeNumerically("<", 1e-9))
}

func TestOrbitVerticalKeepsRadius(t *testing.T) {
	g := NewWithT(t)

	up, err := Orbit(testCamera, testTarget, 0, 40, DefaultPPR)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(up.Distance(testTarget)).To(BeNumerically("~", 70, 1e-9))
	g.Expect(up.Z).To(BeNumerically(">", testCamera.Z))

	down, err := Orbit(testCamera, testTarget, 0, -40, DefaultPPR)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(down.Z).To(BeNumerically("<", testCamera.Z))
	g.Expect(down.Distance(testTarget)).To(BeNumerically("~", 70, 1e-9))
}

func TestOrbitPoleGuard(t *testing.T) {
	g := NewWithT(t)

	for _, dy := range []float64{50, -50} {
		cam := testCamera
		for i := 0; i < 100; i++ {
			next, err := Orbit(cam, testTarget, 0, dy, DefaultPPR)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(elevation(next, testTarget)).To(BeNumerically("<", MaxElevationTilt))
			cam = next
		}
		g.Expect(elevation(cam, testTarget)).To(BeNumerically(">", 5), "drag should approach the pole")
		g.Expect(cam.Distance(testTarget)).To(BeNumerically("~", 70, 1e-6))
	}
}

func TestOrbitErrors(t *testing.T) {
	g := NewWithT(t)

	_, err := Orbit(testCamera, testTarget, 1, 1, 0)
	g.Expect(err).To(MatchError(dynamo.ErrParameterBounds))

	above := testTarget.Add(dynamo.P3(0, 0, 30))
	got, err := Orbit(above, testTarget, 0, 10, DefaultPPR)
	g.Expect(err).To(MatchError(dynamo.ErrDegenerateVector))
	g.Expect(got).To(Equal(above))

	_, err = Orbit(testTarget, testTarget, 0, 10, DefaultPPR)
	g.Expect(err).To(MatchError(dynamo.ErrDegenerateVector))
}

func TestCameraMethods(t *testing.T) {
	g := NewWithT(t)
	c := NewCamera(testCamera, testTarget)
	g.Expect(c.PPR).To(Equal(DefaultPPR))
	g.Expect(c.Distance()).To(Equal(70.0))

	g.Expect(c.Orbit(100, 20)).To(Succeed())
	g.Expect(c.Distance()).To(BeNumerically("~", 70, 1e-9))

	c.ZoomIn(DefaultZoomRate, 0.1)
	in := c.Distance()
	g.Expect(in).To(BeNumerically("<", 70))
	c.ZoomOut(DefaultZoomRate, 0.1)
	g.Expect(c.Distance()).To(BeNumerically(">", in))

	_, err := c.View()
	g.Expect(err).NotTo(HaveOccurred())

	c.Position = testTarget
	g.Expect(c.Orbit(0, 5)).To(MatchError(dynamo.ErrDegenerateVector))
	g.Expect(c.Position).To(Equal(testTarget))
}
