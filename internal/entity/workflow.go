package entity

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreviewing Phase = "previewing"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// State is the workflow state. The variants below are the only implementations.
type State interface {
	Phase() Phase
	isState()
}

// Idle is the initial state: nothing selected.
type Idle struct{}

type Previewing struct {
	Image SelectedImage
}

type Submitting struct {
	Image        SelectedImage
	SubmissionID string
}

type Succeeded struct {
	Image        SelectedImage
	SubmissionID string
	Result       DetectionResult
}

// Failed keeps the selected image so the user can retry without picking the file again.
type Failed struct {
	Image        SelectedImage
	SubmissionID string
	Error        ErrorInfo
}

func (Idle) Phase() Phase       { return PhaseIdle }
func (Previewing) Phase() Phase { return PhasePreviewing }
func (Submitting) Phase() Phase { return PhaseSubmitting }
func (Succeeded) Phase() Phase  { return PhaseSucceeded }
func (Failed) Phase() Phase     { return PhaseFailed }

func (Idle) isState()       {}
func (Previewing) isState() {}
func (Submitting) isState() {}
func (Succeeded) isState()  {}
func (Failed) isState()     {}

// ImageOf returns the selected image held by s, if any.
func ImageOf(s State) (SelectedImage, bool) {
	switch st := s.(type) {
	case Previewing:
		return st.Image, true
	case Submitting:
		return st.Image, true
	case Succeeded:
		return st.Image, true
	case Failed:
		return st.Image, true
	default:
		return SelectedImage{}, false
	}
}
