package flow

import (
	"fmt"
	"strings"
)

// Render produces the text summary sent to the model: screens, edges, the
// main path traced greedily from the first screen and backward loops.
func Render(f Flow) string {
	var b strings.Builder
	b.WriteString("=== APP FLOW ANALYSIS ===\n\n")

	b.WriteString("SCREENS:\n")
	for i, s := range f.Screens {
		info := ""
		if len(s.Buttons) > 0 {
			names := make([]string, len(s.Buttons))
			for j, btn := range s.Buttons {
				names[j] = btn.Text
			}
			info = "  |  Buttons: " + strings.Join(names, ", ")
		}
		fmt.Fprintf(&b, "  %d. %s - %s%s\n", i+1, s.Name, s.Description, info)
	}
	b.WriteString("\n")

	b.WriteString("NAVIGATION FLOW:\n")
	if len(f.Transitions) == 0 {
		b.WriteString("  (No navigation detected - screens may be standalone)\n")
	}
	for _, t := range f.Transitions {
		fmt.Fprintf(&b, "  %s  --[%s]-->  %s\n", f.Screens[t.From].Name, t.Trigger, f.Screens[t.To].Name)
	}

	if len(f.Screens) > 1 {
		b.WriteString("\nFLOW SUMMARY:\n")

		visited := map[int]bool{0: true}
		parts := []string{f.Screens[0].Name}
		current := 0
		for range f.Transitions {
			next := -1
			var trigger string
			for _, t := range f.Transitions {
				if t.From == current && !visited[t.To] {
					next, trigger = t.To, t.Trigger
					break
				}
			}
			if next < 0 {
				break
			}
			parts = append(parts, fmt.Sprintf("--[%s]-->", trigger), f.Screens[next].Name)
			visited[next] = true
			current = next
		}
		fmt.Fprintf(&b, "  %s\n", strings.Join(parts, " "))

		var loops []Transition
		for _, t := range f.Transitions {
			if visited[t.From] && visited[t.To] && t.To < t.From {
				loops = append(loops, t)
			}
		}
		if len(loops) > 0 {
			b.WriteString("\n  LOOPS:\n")
			for _, t := range loops {
				fmt.Fprintf(&b, "    %s --[%s]--> %s\n", f.Screens[t.From].Name, t.Trigger, f.Screens[t.To].Name)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// Summary is the tool result for an auto-confirmed flow.
func Summary(f Flow) string {
	return fmt.Sprintf("Flow analysis auto-confirmed.\n\n%s\n\nScreens: %d\nTransitions: %d\n"+
		"\nUse this confirmed flow to:\n"+
		"  1. Create React Router routes matching each screen\n"+
		"  2. Build components for each screen\n"+
		"  3. Wire up navigation based on the transitions above",
		f.Text, len(f.Screens), len(f.Transitions))
}
