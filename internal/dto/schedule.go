package dto

import "time"

// TeacherPayload describes one teacher in a scheduling request.
type TeacherPayload struct {
	ID              string        `json:"id" validate:"required"`
	Major           string        `json:"major" validate:"required"`
	Minor           string        `json:"minor"`
	MaxHoursPerDay  int           `json:"maxHoursPerDay" validate:"omitempty,min=1"`
	MaxHoursPerWeek int           `json:"maxHoursPerWeek" validate:"omitempty,min=1"`
	Unavailable     []SlotPayload `json:"unavailable" validate:"omitempty,dive"`
}

// SlotPayload is one blocked (day, period) grid cell.
type SlotPayload struct {
	Day    int `json:"day" validate:"min=0,max=4"`
	Period int `json:"period" validate:"min=0,max=9"`
}

// RoomPayload describes one room.
type RoomPayload struct {
	ID       string `json:"id" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
	Shift    int    `json:"shift" validate:"omitempty,min=1,max=3"`
}

// ClassPayload describes one class's weekly subject demand.
type ClassPayload struct {
	ID           string `json:"id" validate:"required"`
	Subject      string `json:"subject" validate:"required"`
	TimesPerWeek int    `json:"timesPerWeek" validate:"required,min=1"`
	Duration     int    `json:"duration" validate:"omitempty,min=1"`
	Shift        int    `json:"shift" validate:"omitempty,min=1,max=3"`
	SectionSize  int    `json:"sectionSize" validate:"omitempty,min=1"`
}

// ScheduleRequest is the full scheduling input.
type ScheduleRequest struct {
	Teachers   []TeacherPayload `json:"teachers" validate:"required,min=1,dive"`
	Rooms      []RoomPayload    `json:"rooms" validate:"required,min=1,dive"`
	Classes    []ClassPayload   `json:"classes" validate:"required,min=1,dive"`
	MaxPerDay  int              `json:"maxPerDay" validate:"omitempty,min=1"`
	MaxPerWeek int              `json:"maxPerWeek" validate:"omitempty,min=1"`
	NumShifts  int              `json:"numShifts" validate:"omitempty,min=1,max=3"`
}

// AssignmentView is one placed session in a response.
type AssignmentView struct {
	Teacher    string `json:"teacher"`
	Class      string `json:"class"`
	Subject    string `json:"subject"`
	Room       string `json:"room"`
	Day        string `json:"day"`
	Period     string `json:"period"`
	Duration   int    `json:"duration"`
	Occurrence int    `json:"occurrence"`
}

// UnassignedView identifies a class occurrence that could not be placed.
type UnassignedView struct {
	Class      string `json:"class"`
	Subject    string `json:"subject"`
	Occurrence int    `json:"occurrence"`
}

// ScheduleResponse is the engine output returned to callers.
type ScheduleResponse struct {
	JobID       string           `json:"jobId"`
	Fingerprint string           `json:"fingerprint"`
	Status      string           `json:"status"`
	Strategy    string           `json:"strategy"`
	Cached      bool             `json:"cached"`
	ElapsedMS   int64            `json:"elapsedMs"`
	Assignments []AssignmentView `json:"schedule"`
	Unassigned  []UnassignedView `json:"unassigned,omitempty"`
}

// ProgressResponse reports pipeline progress for one job.
type ProgressResponse struct {
	JobID     string        `json:"jobId"`
	Stage     string        `json:"stage"`
	Stages    []string      `json:"stages"`
	Percent   int           `json:"percent"`
	Running   bool          `json:"running"`
	Failed    bool          `json:"failed"`
	Message   string        `json:"message,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"estimatedRemaining"`
}

// CacheStatusResponse summarises the in-memory result cache.
type CacheStatusResponse struct {
	Size       int      `json:"size"`
	MaxSize    int      `json:"maxSize"`
	TTLSeconds int      `json:"ttlSeconds"`
	Entries    []string `json:"entries"`
}
