package figma

// File is the subset of the GET /v1/files response used here.
type File struct {
	Name         string `json:"name"`
	LastModified string `json:"lastModified"`
	Document     Node   `json:"document"`
}

// Node is a document node. Pages are CANVAS nodes under the DOCUMENT root.
type Node struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Visible    *bool  `json:"visible,omitempty"`
	Children   []Node `json:"children,omitempty"`
	Characters string `json:"characters,omitempty"`

	AbsoluteBoundingBox *Rectangle `json:"absoluteBoundingBox,omitempty"`

	Fills        []Paint    `json:"fills,omitempty"`
	Strokes      []Paint    `json:"strokes,omitempty"`
	StrokeWeight float64    `json:"strokeWeight,omitempty"`
	Style        *TypeStyle `json:"style,omitempty"`
	Effects      []Effect   `json:"effects,omitempty"`
	Opacity      *float64   `json:"opacity,omitempty"`

	CornerRadius         float64   `json:"cornerRadius,omitempty"`
	RectangleCornerRadii []float64 `json:"rectangleCornerRadii,omitempty"`

	// Auto layout
	LayoutMode            string  `json:"layoutMode,omitempty"`
	LayoutWrap            string  `json:"layoutWrap,omitempty"`
	ItemSpacing           float64 `json:"itemSpacing,omitempty"`
	PaddingLeft           float64 `json:"paddingLeft,omitempty"`
	PaddingRight          float64 `json:"paddingRight,omitempty"`
	PaddingTop            float64 `json:"paddingTop,omitempty"`
	PaddingBottom         float64 `json:"paddingBottom,omitempty"`
	PrimaryAxisAlignItems string  `json:"primaryAxisAlignItems,omitempty"`
	CounterAxisAlignItems string  `json:"counterAxisAlignItems,omitempty"`
	PrimaryAxisSizingMode string  `json:"primaryAxisSizingMode,omitempty"`
	CounterAxisSizingMode string  `json:"counterAxisSizingMode,omitempty"`

	// Child overrides inside an auto-layout parent
	LayoutGrow  float64 `json:"layoutGrow,omitempty"`
	LayoutAlign string  `json:"layoutAlign,omitempty"`

	MinWidth  *float64 `json:"minWidth,omitempty"`
	MaxWidth  *float64 `json:"maxWidth,omitempty"`
	MinHeight *float64 `json:"minHeight,omitempty"`
	MaxHeight *float64 `json:"maxHeight,omitempty"`
}

// IsVisible reports whether the node is rendered.
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// Rectangle is an absolute bounding box.
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Paint is a fill or stroke.
type Paint struct {
	Type          string      `json:"type"`
	Visible       *bool       `json:"visible,omitempty"`
	Opacity       *float64    `json:"opacity,omitempty"`
	Color         *Color      `json:"color,omitempty"`
	GradientStops []ColorStop `json:"gradientStops,omitempty"`
}

// ColorStop is one stop of a gradient paint.
type ColorStop struct {
	Position float64 `json:"position"`
	Color    Color   `json:"color"`
}

// Color channels are in the 0..1 range.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// TypeStyle holds text node typography.
type TypeStyle struct {
	FontFamily          string  `json:"fontFamily,omitempty"`
	FontSize            float64 `json:"fontSize,omitempty"`
	FontWeight          float64 `json:"fontWeight,omitempty"`
	LineHeightPx        float64 `json:"lineHeightPx,omitempty"`
	LetterSpacing       float64 `json:"letterSpacing,omitempty"`
	TextAlignHorizontal string  `json:"textAlignHorizontal,omitempty"`
	TextCase            string  `json:"textCase,omitempty"`
	TextDecoration      string  `json:"textDecoration,omitempty"`
	Italic              bool    `json:"italic,omitempty"`
}

// Effect is a shadow or blur.
type Effect struct {
	Type    string  `json:"type"`
	Visible *bool   `json:"visible,omitempty"`
	Radius  float64 `json:"radius"`
	Spread  float64 `json:"spread,omitempty"`
	Color   *Color  `json:"color,omitempty"`
	Offset  *Vector `json:"offset,omitempty"`
}

// Vector is a 2D offset.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is a top-level screen exported as an image.
type Frame struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Page string `json:"page"`
}

// CollectFrames returns the screens of a file: FRAME nodes found by walking
// pages and non-frame containers such as sections and groups. Frames nested
// inside another frame are parts of that screen and are not returned.
func CollectFrames(f *File) []Frame {
	var frames []Frame
	var walk func(n *Node, page string, depth int)
	walk = func(n *Node, page string, depth int) {
		if depth > MaxDepth || !n.IsVisible() {
			return
		}
		if n.Type == "FRAME" {
			frames = append(frames, Frame{ID: n.ID, Name: n.Name, Page: page})
			return
		}
		for i := range n.Children {
			walk(&n.Children[i], page, depth+1)
		}
	}

	for i := range f.Document.Children {
		page := &f.Document.Children[i]
		if page.Type == "FRAME" {
			frames = append(frames, Frame{ID: page.ID, Name: page.Name, Page: ""})
			continue
		}
		for j := range page.Children {
			walk(&page.Children[j], page.Name, 1)
		}
	}
	return frames
}
