package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"dccpipe/internal/services"
)

// FrameRange is an inclusive frame interval. It is stored as a two element
// flow sequence: [start, end].
type FrameRange struct {
	Start int
	End   int
}

// NewFrameRange validates start <= end.
func NewFrameRange(start, end int) (FrameRange, error) {
	if start > end {
		return FrameRange{}, services.Wrap(services.ErrInvalidConfiguration, "metadata", "frame range",
			fmt.Sprintf("start %d is after end %d", start, end), nil)
	}
	return FrameRange{Start: start, End: end}, nil
}

// ParseFrameRange accepts "10-20" or a single frame "7".
func ParseFrameRange(value string) (FrameRange, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return FrameRange{}, services.Wrap(services.ErrInvalidConfiguration, "metadata", "frame range", "empty range", nil)
	}
	startText, endText, found := strings.Cut(value, "-")
	if !found {
		endText = startText
	}
	start, err := strconv.Atoi(strings.TrimSpace(startText))
	if err != nil {
		return FrameRange{}, services.Wrap(services.ErrInvalidConfiguration, "metadata", "frame range",
			fmt.Sprintf("invalid start in %q", value), nil)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endText))
	if err != nil {
		return FrameRange{}, services.Wrap(services.ErrInvalidConfiguration, "metadata", "frame range",
			fmt.Sprintf("invalid end in %q", value), nil)
	}
	return NewFrameRange(start, end)
}

// Len is the number of frames in the range.
func (r FrameRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Frames lists every frame in ascending order.
func (r FrameRange) Frames() []int {
	frames := make([]int, 0, r.Len())
	for f := r.Start; f <= r.End; f++ {
		frames = append(frames, f)
	}
	return frames
}

func (r FrameRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func (r FrameRange) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(r.Start)},
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(r.End)},
		},
	}, nil
}

func (r *FrameRange) UnmarshalYAML(node *yaml.Node) error {
	var pair []int
	if err := node.Decode(&pair); err != nil {
		return fmt.Errorf("shot range: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("shot range: expected [start, end], got %d values", len(pair))
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

func (r FrameRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

func (r *FrameRange) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("shot range: %w", err)
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}
