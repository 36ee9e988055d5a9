package flow

import "github.com/cft-yamuna/quiz-agent/internal/figma"

// FromDesign extracts the screens and their interactive elements from a
// Figma document, in design order.
func FromDesign(f *figma.File) ([]Frame, []Element) {
	collected := figma.CollectFrames(f)
	frames := make([]Frame, len(collected))
	for i, fr := range collected {
		frames[i] = Frame{ID: fr.ID, Name: fr.Name, Page: fr.Page}
	}

	spec := figma.Flatten(f)
	elements := make([]Element, 0, len(spec.Interactive))
	for _, it := range spec.Interactive {
		elements = append(elements, Element{Name: it.Name, Text: it.Text, Frame: it.Frame, Type: it.Type})
	}
	return frames, elements
}
