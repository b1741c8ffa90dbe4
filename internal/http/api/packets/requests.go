package packets

import "github.com/mihrab-app/mihrab/internal/model"

type SignupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateCurrentProfileRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name"`
}

type UpdatePrayerStatusRequest struct {
	Status model.PrayerStatus `json:"status" binding:"required"`
	Notes  string             `json:"notes"`
}

type CustomPrayerRequest struct {
	ID        string                 `json:"id"`
	Type      model.CustomPrayerType `json:"type" binding:"required"`
	Name      string                 `json:"name" binding:"required"`
	Rakaat    int                    `json:"rakaat" binding:"required,min=1"`
	Completed bool                   `json:"completed"`
}

type AddQadaRequest struct {
	Prayer model.PrayerName `json:"prayer" binding:"required"`
	Date   string           `json:"date" binding:"required"`
	Notes  string           `json:"notes"`
}

type StatsQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

// PrayerTimesQuery's date may also come from the route path; resolveTimes
// rejects the empty string.
type PrayerTimesQuery struct {
	Date      string  `form:"date"`
	Latitude  float64 `form:"latitude" binding:"required"`
	Longitude float64 `form:"longitude" binding:"required"`
	Method    string  `form:"method"`
	Madhab    string  `form:"madhab"`
}

type NetworkEventRequest struct {
	Connected         *bool             `json:"connected"`
	InternetReachable *bool             `json:"internet_reachable"`
	Type              string            `json:"type"`
	Details           map[string]string `json:"details"`
}
