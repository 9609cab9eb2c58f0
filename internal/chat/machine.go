package chat

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"post-assist-bot/internal/cache"
	"post-assist-bot/internal/database"
	"post-assist-bot/internal/errs"
	"post-assist-bot/internal/knowledge"
	"post-assist-bot/internal/ledger"
	"post-assist-bot/internal/logger"
	"post-assist-bot/internal/metrics"
	"post-assist-bot/internal/postal"

	"github.com/gin-gonic/gin"
)

type (
	KnowledgeBase interface {
		Entries() []knowledge.Entry
	}

	PincodeResolver interface {
		Resolve(ctx context.Context, pincode string) ([]postal.Office, error)
	}

	GeoResolver interface {
		Resolve(ctx context.Context, lat, lon float64) (string, error)
	}

	Ledger interface {
		Append(rec ledger.Record) error
	}

	Machine struct {
		kb       KnowledgeBase
		pincodes PincodeResolver
		geo      GeoResolver
		ledger   Ledger
		metrics  metrics.Recorder

		// base of the link stored with a complaint
		publicURL string

		rand knowledge.Chooser
		now  func() time.Time
	}

	Option func(*Machine)
)

var rePincode = regexp.MustCompile(`^[0-9]{6}$`)

// rule names reported to metrics
const (
	RULE_DESCRIPTION  = "image_description"
	RULE_RESET        = "reset"
	RULE_LOCATION     = "location"
	RULE_PINCODE      = "pincode"
	RULE_ASK_PINCODE  = "find_by_pincode"
	RULE_ASK_LOCATION = "find_office_by_location"
	RULE_KEYWORD      = "keyword"
	RULE_FALLBACK     = "fallback"
)

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

func WithRand(r knowledge.Chooser) Option {
	return func(m *Machine) { m.rand = r }
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func New(kb KnowledgeBase, pincodes PincodeResolver, geo GeoResolver, l Ledger, publicURL string, rec metrics.Recorder, opts ...Option) *Machine {
	m := &Machine{
		kb:        kb,
		pincodes:  pincodes,
		geo:       geo,
		ledger:    l,
		metrics:   rec,
		publicURL: strings.TrimRight(publicURL, "/"),
		rand:      globalRand{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch answers one request and returns the session to store. Rules are
// tried in a fixed order and the first that applies wins. Dispatch never
// fails: upstream and storage errors become apology text.
func (m *Machine) Dispatch(ctx context.Context, session cache.Session, req Request) (Response, cache.Session) {
	message := Normalize(req.Message)
	cmd := DecodeCommand(message)

	switch {
	case session.State == database.AWAITING_IMAGE_DESCRIPTION:
		m.metrics.IncChatRule(RULE_DESCRIPTION)
		return m.completeComplaint(session, strings.TrimSpace(req.Message))

	case cmd == CommandReset:
		m.metrics.IncChatRule(RULE_RESET)
		session.Clear()
		return m.welcome(), session

	case req.HasLocation():
		m.metrics.IncChatRule(RULE_LOCATION)
		return m.searchByLocation(ctx, *req.Latitude, *req.Longitude), session

	case session.State == database.AWAITING_PINCODE:
		m.metrics.IncChatRule(RULE_PINCODE)
		return m.searchByPincode(ctx, session, message)

	case cmd == CommandFindByPincode:
		m.metrics.IncChatRule(RULE_ASK_PINCODE)
		session.State = database.AWAITING_PINCODE
		return text("Please enter the 6-digit pincode to search for post offices:"), session

	case cmd == CommandFindByLocation:
		m.metrics.IncChatRule(RULE_ASK_LOCATION)
		return text("Please share your location to find nearby post offices."), session
	}

	if resp, ok := m.keywordAnswer(message); ok {
		m.metrics.IncChatRule(RULE_KEYWORD)
		return resp, session
	}

	m.metrics.IncChatRule(RULE_FALLBACK)
	return text("I'm not sure I understand. How can I help you?", optionGoBack), session
}

// the pending image and the state are consumed whatever the outcome
func (m *Machine) completeComplaint(session cache.Session, description string) (Response, cache.Session) {
	imageID, ok := session.TakePendingImage()
	session.ClearState()

	if !ok || description == "" {
		return text("I lost the context. Please try uploading the image again or start a new conversation.", optionMainMenu), session
	}

	now := m.now()
	rec := ledger.Record{
		Timestamp:     float64(now.UnixNano()) / float64(time.Second),
		ImageID:       imageID,
		Description:   description,
		FileReference: fmt.Sprintf("%s/uploads/%d_[filename].ext", m.publicURL, imageID),
	}

	if err := m.ledger.Append(rec); err != nil {
		logger.Warning("Complaint", imageID, "not logged:", err)
		return text("Sorry, we could not log your complaint right now. Please try uploading the image again.", optionMainMenu), session
	}
	m.metrics.IncComplaintsLogged()

	return text(
		fmt.Sprintf("Complaint successfully logged! Reference ID: %d. Thank you for the description: '%s...'.", imageID, truncate(description, MAX_DESCRIPTION_ECHO)),
		optionTrackTrace, optionMainMenu,
	), session
}

func (m *Machine) welcome() Response {
	for _, entry := range m.kb.Entries() {
		if !entry.HasKeyword("hi") {
			continue
		}
		answer, ok := entry.Answer(m.rand)
		// an options answer greets only when it is randomized
		if !ok || (entry.OptionAnswer && entry.Policy != knowledge.PolicyRandom) {
			answer = WELCOME_MESSAGE
		}
		return text(answer, entry.Options...)
	}

	return text(WELCOME_MESSAGE, welcomeOptions...)
}

func (m *Machine) searchByLocation(ctx context.Context, lat, lon float64) Response {
	pincode, err := m.geo.Resolve(ctx, lat, lon)
	if err != nil {
		logger.Info("No pincode for location", lat, lon, err)
		return text("I could not determine the pincode for your location.")
	}
	// geocoders may answer "110 001"
	pincode = strings.Join(strings.Fields(pincode), "")
	if !rePincode.MatchString(pincode) {
		logger.Info("Unusable postcode for location", lat, lon, pincode)
		return text("I could not determine the pincode for your location.")
	}

	offices, err := m.pincodes.Resolve(ctx, pincode)
	if err != nil {
		return text("Sorry, I could not find post offices near your location.")
	}
	if len(offices) == 0 {
		return text(fmt.Sprintf("No post offices found for your location (pincode %s).", pincode))
	}

	return officeList(fmt.Sprintf("Found %d post offices for your location (pincode %s):", len(offices), pincode), offices)
}

// A valid pincode clears the state before the lookup, so after any
// failure the user has to pick "find by pincode" again.
func (m *Machine) searchByPincode(ctx context.Context, session cache.Session, pincode string) (Response, cache.Session) {
	if !rePincode.MatchString(pincode) {
		return text("That doesn't look like a valid Pincode. Please enter a 6-digit number."), session
	}
	session.ClearState()

	offices, err := m.pincodes.Resolve(ctx, pincode)
	if err != nil {
		if message, ok := errs.IsNotFound(err); ok {
			return text(fmt.Sprintf("Error: %s. Please choose Find by Pincode to try another pincode.", message), optionByPincode), session
		}
		return text("Sorry, we couldn't fetch pincode information at this time. Please choose Find by Pincode to try again.", optionByPincode), session
	}
	if len(offices) == 0 {
		return text(fmt.Sprintf("No post offices found for pincode %s.", pincode), optionByPincode), session
	}

	return officeList(fmt.Sprintf("Found %d post offices for %s. Main offices:", len(offices), pincode), offices), session
}

func (m *Machine) keywordAnswer(message string) (Response, bool) {
	for _, entry := range m.kb.Entries() {
		if !entry.Matches(message) {
			continue
		}
		answer, _ := entry.Answer(m.rand)
		resp := text(answer, entry.Options...)
		resp.ShowUpload = isComplaint(entry)
		return resp, true
	}
	return Response{}, false
}

func isComplaint(entry knowledge.Entry) bool {
	for _, k := range complaintKeywords {
		if entry.HasKeyword(k) {
			return true
		}
	}
	return false
}

// officeList shows the first offices as options and always attaches the full list.
func officeList(header string, offices []postal.Office) Response {
	shown := offices
	if len(shown) > MAX_OFFICE_OPTIONS {
		shown = shown[:MAX_OFFICE_OPTIONS]
		header += fmt.Sprintf(" (showing %d of %d)", MAX_OFFICE_OPTIONS, len(offices))
	}

	options := make([]knowledge.Option, 0, len(shown))
	for _, po := range shown {
		options = append(options, officeOption(po))
	}

	resp := text(header, options...)
	resp.FullData = offices
	return resp
}

func officeOption(po postal.Office) knowledge.Option {
	name, branch := po.Name, po.BranchType
	if name == "" {
		name = "N/A"
	}
	if branch == "" {
		branch = "Office"
	}
	return knowledge.Option{
		Text:  fmt.Sprintf("%s (%s)", name, branch),
		Value: "post_office_" + strings.ReplaceAll(po.Name, " ", "_"),
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func Inject(key string, m *Machine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, m)
	}
}
