package model

type Patient struct {
	Base
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	Phone        string `db:"phone" json:"phone"`
	Address      string `db:"address" json:"address"`
	PasswordHash string `db:"password_hash" json:"-"`
}

type RegisterPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address"`
	Password string `json:"password" binding:"required,min=8"`
}

// AppointmentCondition filters a patient's appointments by where they sit
// in the lifecycle: "future" selects scheduled ones, "past" completed ones.
type AppointmentCondition string

const (
	ConditionFuture AppointmentCondition = "future"
	ConditionPast   AppointmentCondition = "past"
)

func (c AppointmentCondition) Status() (AppointmentStatus, bool) {
	switch c {
	case ConditionFuture:
		return AppointmentStatusScheduled, true
	case ConditionPast:
		return AppointmentStatusCompleted, true
	}
	return 0, false
}
