// Package opencv implements vision.Ops on top of gocv.
//
// Every call converts its Go image into a Mat, runs one OpenCV routine and
// copies the result back, closing all Mats before returning.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/DavidGR0788/ruleta/domain/vision"
)

// Ops is the OpenCV backend. The zero value is ready to use.
type Ops struct{}

var _ vision.Ops = Ops{}

// New returns the OpenCV backend.
func New() Ops { return Ops{} }

func (Ops) Gray(frame *image.RGBA) (*image.Gray, error) {
	src, err := rgbaToMat(frame)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray); err != nil {
		return nil, fmt.Errorf("opencv: cvtcolor gray: %w", err)
	}
	return matToGray(gray)
}

func (Ops) MedianBlur(src *image.Gray, ksize int) (*image.Gray, error) {
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.MedianBlur(mat, &dst, ksize); err != nil {
		return nil, fmt.Errorf("opencv: median blur: %w", err)
	}
	return matToGray(dst)
}

func (Ops) HoughCircles(src *image.Gray, p vision.HoughParams) ([]vision.Circle, error) {
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	circles := gocv.NewMat()
	defer circles.Close()
	err = gocv.HoughCirclesWithParams(mat, &circles, gocv.HoughGradient,
		p.DP, p.MinDistance,
		p.EdgeThreshold, p.AccumulatorThreshold,
		p.MinRadius, p.MaxRadius)
	if err != nil {
		return nil, fmt.Errorf("opencv: hough circles: %w", err)
	}

	if circles.Empty() || circles.Cols() == 0 {
		return nil, nil
	}
	out := make([]vision.Circle, 0, circles.Cols())
	for i := 0; i < circles.Cols(); i++ {
		v := circles.GetVecfAt(0, i)
		out = append(out, vision.Circle{X: float64(v[0]), Y: float64(v[1]), Radius: float64(v[2])})
	}
	return out, nil
}

func (Ops) HSV(src *image.RGBA) (*vision.HSVImage, error) {
	mat, err := rgbaToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	if err := gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR); err != nil {
		return nil, fmt.Errorf("opencv: cvtcolor bgr: %w", err)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV); err != nil {
		return nil, fmt.Errorf("opencv: cvtcolor hsv: %w", err)
	}

	out := vision.NewHSVImage(image.Rect(0, 0, hsv.Cols(), hsv.Rows()))
	copy(out.Pix, hsv.ToBytes())
	return out, nil
}

func (Ops) InRange(src *vision.HSVImage, lo, hi vision.HSV) (*image.Gray, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, vision.ErrEmptyImage
	}
	b := src.Bounds()
	pix := make([]byte, 3*b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		copy(pix[y*3*b.Dx():(y+1)*3*b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC3, pix)
	if err != nil {
		return nil, fmt.Errorf("opencv: hsv mat: %w", err)
	}
	defer mat.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	err = gocv.InRangeWithScalar(mat,
		gocv.NewScalar(float64(lo.H), float64(lo.S), float64(lo.V), 0),
		gocv.NewScalar(float64(hi.H), float64(hi.S), float64(hi.V), 0),
		&mask)
	if err != nil {
		return nil, fmt.Errorf("opencv: in range: %w", err)
	}
	return matToGray(mask)
}

func (Ops) Open(mask *image.Gray, ksize int) (*image.Gray, error) {
	mat, err := grayToMat(mask)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(ksize, ksize))
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.MorphologyEx(mat, &dst, gocv.MorphOpen, kernel); err != nil {
		return nil, fmt.Errorf("opencv: morphology open: %w", err)
	}
	return matToGray(dst)
}

func (Ops) FindContours(mask *image.Gray) ([]vision.Contour, error) {
	mat, err := grayToMat(mask)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]vision.Contour, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		out = append(out, vision.Contour(contours.At(i).ToPoints()))
	}
	return out, nil
}

func (Ops) ContourArea(c vision.Contour) float64 {
	if len(c) == 0 {
		return 0
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.ContourArea(pv)
}

// Moments treats c as a point vector, like cv::moments on a contour.
func (Ops) Moments(c vision.Contour) vision.Moments {
	if len(c) == 0 {
		return vision.Moments{}
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	mat := gocv.NewMatFromPointVector(pv, true)
	defer mat.Close()

	m := gocv.Moments(mat, false)
	return vision.Moments{M00: m["m00"], M10: m["m10"], M01: m["m01"]}
}

// rgbaToMat copies frame into a 4-channel Mat, compacting sub-images.
func rgbaToMat(frame *image.RGBA) (gocv.Mat, error) {
	if frame == nil || frame.Bounds().Empty() {
		return gocv.Mat{}, vision.ErrEmptyImage
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := frame.Pix
	if frame.Stride != 4*w || b.Min != (image.Point{}) {
		pix = make([]byte, 4*w*h)
		for y := 0; y < h; y++ {
			off := frame.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*4*w:(y+1)*4*w], frame.Pix[off:off+4*w])
		}
	} else {
		pix = pix[:4*w*h]
	}
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("opencv: rgba mat: %w", err)
	}
	return mat, nil
}

func grayToMat(img *image.Gray) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.Mat{}, vision.ErrEmptyImage
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w:(y+1)*w], img.Pix[off:off+w])
	}
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("opencv: gray mat: %w", err)
	}
	return mat, nil
}

func matToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Empty() {
		return nil, vision.ErrEmptyImage
	}
	if mat.Channels() != 1 {
		return nil, fmt.Errorf("opencv: expected 1 channel, got %d", mat.Channels())
	}
	out := image.NewGray(image.Rect(0, 0, mat.Cols(), mat.Rows()))
	copy(out.Pix, mat.ToBytes())
	return out, nil
}
