package league

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
)

const (
	DefaultPublicLimit = 50
	InviteCodeLength   = 8
)

// League is a scoring group predictions are ranked within.
type League struct {
	ID         string
	Name       string
	InviteCode string
	AdminID    string
	Members    []string
	IsPublic   bool
	CreatedAt  time.Time
}

// Global is the built-in group every user belongs to.
func Global() League {
	return League{
		ID:       prediction.GlobalLeagueID,
		Name:     "Global",
		IsPublic: true,
	}
}

func (l League) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("league id is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("league name is required")
	}
	if strings.TrimSpace(l.AdminID) == "" {
		return fmt.Errorf("league admin is required")
	}
	if len(strings.TrimSpace(l.InviteCode)) != InviteCodeLength {
		return fmt.Errorf("league invite code must be %d characters", InviteCodeLength)
	}
	return nil
}

func (l League) HasMember(userID string) bool {
	if l.ID == prediction.GlobalLeagueID {
		return true
	}
	for _, member := range l.Members {
		if member == userID {
			return true
		}
	}
	return false
}

// AcceptsPredictionsFrom reports whether userID may file predictions in this group.
func (l League) AcceptsPredictionsFrom(userID string) bool {
	return l.IsPublic || l.HasMember(userID)
}
