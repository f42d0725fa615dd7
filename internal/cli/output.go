package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprint(o.w, pterm.Success.Sprintln(msg))
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case StatsResult:
		o.printStatsResult(v)
	case CleanupResult:
		o.printCleanupResult(v)
	case RoomList:
		o.printRoomList(v)
	case RoomDetail:
		o.printRoomDetail(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Counters are the engine's table sizes
type Counters struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
	Players     int `json:"players"`
	Sessions    int `json:"sessions"`
	HeldSeats   int `json:"held_seats"`
	RateLimits  int `json:"rate_limits"`
}

// Memory response type
type Memory struct {
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapInuse  uint64 `json:"heap_inuse"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

// StatsResult response type
type StatsResult struct {
	Counters
	UptimeSeconds int64  `json:"uptime_seconds"`
	Memory        Memory `json:"memory"`
}

// SweepReport response type
type SweepReport struct {
	RoomsDeleted     int `json:"rooms_deleted"`
	GamesDropped     int `json:"games_dropped"`
	RateLimitsPurged int `json:"rate_limits_purged"`
	SessionsExpired  int `json:"sessions_expired"`
	SeatsReleased    int `json:"seats_released"`
}

// CleanupResult response type
type CleanupResult struct {
	Report SweepReport `json:"report"`
	After  Counters    `json:"after"`
}

// Member is a seated player as the server reports it
type Member struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       int    `json:"avatar"`
	IsBot        bool   `json:"isBot"`
	Ready        bool   `json:"ready"`
	Difficulty   string `json:"difficulty,omitempty"`
	Disconnected bool   `json:"disconnected,omitempty"`
}

// Room response type
type Room struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Host        string   `json:"host"`
	MaxPlayers  int      `json:"maxPlayers"`
	Players     []Member `json:"players"`
	Status      string   `json:"status"`
	IsPrivate   bool     `json:"isPrivate"`
	HasPassword bool     `json:"hasPassword"`
	CreatedAt   int64    `json:"createdAt"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomDetail response type
type RoomDetail struct {
	Room    Room   `json:"room"`
	JoinURL string `json:"join_url"`
}

func (o *Output) table(rows [][]string, header bool) {
	t := pterm.DefaultTable.WithData(pterm.TableData(rows))
	if header {
		t = t.WithHasHeader()
	}
	s, err := t.Srender()
	if err != nil {
		_, _ = fmt.Fprintln(o.w, err)
		return
	}
	_, _ = fmt.Fprintln(o.w, s)
}

func uptime(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}

func (o *Output) printHealthResult(h HealthResult) {
	status := pterm.LightGreen(h.Status)
	if h.Status != "ok" {
		status = pterm.LightRed(h.Status)
	}
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", status)
	_, _ = fmt.Fprintf(o.w, "Uptime: %s\n", uptime(h.UptimeSeconds))
}

func counterRows(c Counters) [][]string {
	return [][]string{
		{"Rooms", strconv.Itoa(c.Rooms)},
		{"Connections", strconv.Itoa(c.Connections)},
		{"Players", strconv.Itoa(c.Players)},
		{"Sessions", strconv.Itoa(c.Sessions)},
		{"Held seats", strconv.Itoa(c.HeldSeats)},
		{"Rate limits", strconv.Itoa(c.RateLimits)},
	}
}

func (o *Output) printStatsResult(s StatsResult) {
	rows := counterRows(s.Counters)
	rows = append(rows,
		[]string{"Uptime", uptime(s.UptimeSeconds)},
		[]string{"Goroutines", strconv.Itoa(s.Memory.Goroutines)},
		[]string{"Heap in use", strconv.FormatUint(s.Memory.HeapInuse/1024, 10) + " KiB"},
		[]string{"GC cycles", strconv.FormatUint(uint64(s.Memory.NumGC), 10)},
	)
	o.table(rows, false)
}

func (o *Output) printCleanupResult(c CleanupResult) {
	_, _ = fmt.Fprint(o.w, pterm.Success.Sprintln("Sweep complete"))
	o.table([][]string{
		{"Removed", "Count"},
		{"Rooms", strconv.Itoa(c.Report.RoomsDeleted)},
		{"Games", strconv.Itoa(c.Report.GamesDropped)},
		{"Rate limits", strconv.Itoa(c.Report.RateLimitsPurged)},
		{"Sessions", strconv.Itoa(c.Report.SessionsExpired)},
		{"Held seats", strconv.Itoa(c.Report.SeatsReleased)},
	}, true)
	_, _ = fmt.Fprintln(o.w, "After:")
	o.table(counterRows(c.After), false)
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		_, _ = fmt.Fprint(o.w, pterm.Info.Sprintln("No public rooms"))
		return
	}
	rows := [][]string{{"Code", "Name", "Host", "Players", "Status", "Locked"}}
	for _, r := range l.Rooms {
		locked := ""
		if r.HasPassword {
			locked = "yes"
		}
		rows = append(rows, []string{
			r.Code,
			r.Name,
			r.Host,
			fmt.Sprintf("%d/%d", len(r.Players), r.MaxPlayers),
			r.Status,
			locked,
		})
	}
	o.table(rows, true)
}

func memberLabel(m Member) string {
	var tags []string
	if m.IsBot {
		tags = append(tags, "bot "+m.Difficulty)
	}
	if m.Ready {
		tags = append(tags, pterm.LightGreen("ready"))
	}
	if m.Disconnected {
		tags = append(tags, pterm.LightRed("disconnected"))
	}
	label := fmt.Sprintf("%s (%s)", m.Name, m.ID)
	if len(tags) > 0 {
		label += " [" + strings.Join(tags, ", ") + "]"
	}
	return label
}

func (o *Output) printRoomDetail(d RoomDetail) {
	r := d.Room
	var b strings.Builder
	fmt.Fprintf(&b, "Code: %s\n", r.Code)
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	fmt.Fprintf(&b, "Host: %s\n", r.Host)
	fmt.Fprintf(&b, "Private: %t  Password: %t\n", r.IsPrivate, r.HasPassword)
	fmt.Fprintf(&b, "Players (%d/%d):\n", len(r.Players), r.MaxPlayers)
	for _, m := range r.Players {
		fmt.Fprintf(&b, "  - %s\n", memberLabel(m))
	}
	if d.JoinURL != "" {
		fmt.Fprintf(&b, "Join: %s", d.JoinURL)
	}

	box := pterm.DefaultBox.WithHorizontalPadding(2).WithTitle(pterm.LightYellow("|" + r.Name + "|")).WithTitleTopCenter()
	_, _ = fmt.Fprintln(o.w, box.Sprint(b.String()))
}
