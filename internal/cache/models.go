package cache

import "post-assist-bot/internal/database"

type (
	// data bound to one conversation; an empty record means idle
	Session struct {
		// current state, empty when idle
		State string `json:"state,omitempty"`
		// image waiting for its description
		PendingImageID *int64 `json:"pending_image_id,omitempty"`
	}
)

func (s Session) IsEmpty() bool {
	return s.State == database.IDLE && s.PendingImageID == nil
}

func (s *Session) AwaitImageDescription(imageID int64) {
	s.State = database.AWAITING_IMAGE_DESCRIPTION
	s.PendingImageID = &imageID
}

// TakePendingImage removes the pending image and returns it.
func (s *Session) TakePendingImage() (int64, bool) {
	if s.PendingImageID == nil {
		return 0, false
	}
	id := *s.PendingImageID
	s.PendingImageID = nil
	return id, true
}

func (s *Session) ClearState() {
	s.State = database.IDLE
}

func (s *Session) Clear() {
	*s = Session{}
}
