package models

import (
	"fmt"
	"sort"
	"strings"
)

// Meeting is one weekly meeting of a section.
type Meeting struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room"`
}

// TimeText renders the day and time the way the portal prints them, e.g. "Senin, 08.00-09.40".
func (m Meeting) TimeText() string {
	slot := m.StartTime
	if m.EndTime != "" {
		slot = m.StartTime + "-" + m.EndTime
	}
	switch {
	case m.Day == "":
		return slot
	case slot == "":
		return m.Day
	default:
		return m.Day + ", " + slot
	}
}

// String renders the meeting including its room.
func (m Meeting) String() string {
	if m.Room == "" {
		return m.TimeText()
	}
	return fmt.Sprintf("%s @ %s", m.TimeText(), m.Room)
}

func (m Meeting) key() string {
	return strings.Join([]string{m.Day, m.StartTime, m.EndTime, m.Room}, "\x1f")
}

// Section is a single offered class instance.
type Section struct {
	Code       string    `json:"code"`
	CourseName string    `json:"course_name"`
	Professor  string    `json:"professor"`
	Schedule   []Meeting `json:"schedule"`
	Capacity   int       `json:"capacity"`
	Enrolled   int       `json:"enrolled"`
}

// ScheduleText renders the meeting time slots in canonical order without rooms.
func (s Section) ScheduleText() string {
	slots := make([]string, 0, len(s.Schedule))
	for _, m := range SortedMeetings(s.Schedule) {
		slots = append(slots, m.TimeText())
	}
	return strings.Join(slots, "; ")
}

// LocationText renders the rooms of the section in canonical meeting order.
func (s Section) LocationText() string {
	rooms := make([]string, 0, len(s.Schedule))
	for _, m := range SortedMeetings(s.Schedule) {
		room := m.Room
		if room == "" {
			room = "-"
		}
		rooms = append(rooms, room)
	}
	return strings.Join(rooms, "; ")
}

// SameSlots reports whether both sections meet at the same (day, start, end)
// tuples, ignoring order and rooms.
func (s Section) SameSlots(other Section) bool {
	return equalKeys(slotKeys(s.Schedule), slotKeys(other.Schedule))
}

// SameRooms reports whether both sections use the same rooms for the same
// slots, ignoring meeting order.
func (s Section) SameRooms(other Section) bool {
	return equalKeys(meetingKeys(s.Schedule), meetingKeys(other.Schedule))
}

// SameRoomSet reports whether both sections use the same rooms, ignoring
// which slot each room belongs to.
func (s Section) SameRoomSet(other Section) bool {
	return equalKeys(roomKeys(s.Schedule), roomKeys(other.Schedule))
}

func roomKeys(meetings []Meeting) []string {
	keys := make([]string, 0, len(meetings))
	for _, m := range meetings {
		keys = append(keys, m.Room)
	}
	sort.Strings(keys)
	return keys
}

func slotKeys(meetings []Meeting) []string {
	keys := make([]string, 0, len(meetings))
	for _, m := range meetings {
		keys = append(keys, strings.Join([]string{m.Day, m.StartTime, m.EndTime}, "\x1f"))
	}
	sort.Strings(keys)
	return keys
}

func meetingKeys(meetings []Meeting) []string {
	keys := make([]string, 0, len(meetings))
	for _, m := range meetings {
		keys = append(keys, m.key())
	}
	sort.Strings(keys)
	return keys
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SortedMeetings returns a copy of meetings in canonical order so that two
// schedules holding the same tuples compare equal regardless of input order.
func SortedMeetings(meetings []Meeting) []Meeting {
	out := make([]Meeting, len(meetings))
	copy(out, meetings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].key() < out[j].key()
	})
	return out
}

func (s Section) clone() Section {
	c := s
	if s.Schedule != nil {
		c.Schedule = make([]Meeting, len(s.Schedule))
		copy(c.Schedule, s.Schedule)
	}
	return c
}
