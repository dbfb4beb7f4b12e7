package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"

	"firefight-platform/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const teamCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var teamCodePattern = regexp.MustCompile(`^FF-[A-Z0-9]{6}$`)

// NewTeamCode returns a random invite code such as FF-7KQ2ZD.
func NewTeamCode() (string, error) {
	var b strings.Builder
	b.WriteString("FF-")
	max := big.NewInt(int64(len(teamCodeAlphabet)))
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(teamCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func ValidTeamCode(code string) bool {
	return teamCodePattern.MatchString(code)
}

type TeamService struct {
	DB *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{DB: db}
}

// Create registers a team with the owner as captain.
func (s *TeamService) Create(ctx context.Context, ownerID, name, logoURL, inGameID string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 40 {
		return nil, invalid("name", "must be 3 to 40 characters")
	}

	team := &models.Team{
		Slug:    slug.Make(name),
		Name:    name,
		LogoURL: logoURL,
		OwnerID: ownerID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := s.uniqueCode(tx)
		if err != nil {
			return err
		}
		team.Code = code
		if err := tx.Omit(clause.Associations).Create(team).Error; err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		captain := models.TeamPlayer{TeamID: team.ID, UserID: ownerID, Role: models.RoleCaptain, InGameID: inGameID}
		if err := tx.Create(&captain).Error; err != nil {
			return fmt.Errorf("add captain: %w", err)
		}
		team.Players = []models.TeamPlayer{captain}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("👥 [TEAM] %s created team %q (%s)", ownerID, team.Name, team.Code)
	return team, nil
}

func (s *TeamService) uniqueCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := NewTeamCode()
		if err != nil {
			return "", fmt.Errorf("generate team code: %w", err)
		}
		var n int64
		if err := tx.Model(&models.Team{}).Where("code = ?", code).Count(&n).Error; err != nil {
			return "", fmt.Errorf("check team code: %w", err)
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique team code")
}

func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	if err := s.DB.WithContext(ctx).Preload("Players").First(&team, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "team", id)
	}
	return &team, nil
}

// ForUser lists the teams the user plays on.
func (s *TeamService) ForUser(ctx context.Context, userID string) ([]models.Team, error) {
	var teams []models.Team
	if err := s.DB.WithContext(ctx).
		Preload("Players").
		Where("id IN (?)", s.DB.Model(&models.TeamPlayer{}).Select("team_id").Where("user_id = ?", userID)).
		Order("created_at ASC").
		Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// JoinByCode adds userID to the team behind an invite code.
func (s *TeamService) JoinByCode(ctx context.Context, userID, code string, role models.PlayerRole, inGameID string) (*models.Team, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ValidTeamCode(code) {
		return nil, invalid("code", "must look like FF-XXXXXX")
	}
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() || role == models.RoleCaptain {
		return nil, invalid("role", "unknown or reserved role")
	}

	var team models.Team
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, "code = ?", code).Error; err != nil {
			return notFound(err, "team", code)
		}
		if err := tx.Where("team_id = ?", team.ID).Order("joined_at ASC").Find(&team.Players).Error; err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
		if team.HasMember(userID) {
			return ErrAlreadyOnTeam
		}
		if len(team.Players) >= models.MaxRosterSize {
			return ErrRosterFull
		}
		player := models.TeamPlayer{TeamID: team.ID, UserID: userID, Role: role, InGameID: inGameID}
		if err := tx.Create(&player).Error; err != nil {
			return fmt.Errorf("add player: %w", err)
		}
		team.Players = append(team.Players, player)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("👥 [TEAM] %s joined %s as %s", userID, team.Code, role)
	return &team, nil
}

// RemovePlayer lets the owner drop a player. The captain stays.
func (s *TeamService) RemovePlayer(ctx context.Context, teamID, actorID, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, "id = ?", teamID).Error; err != nil {
			return notFound(err, "team", teamID)
		}
		if team.OwnerID != actorID {
			return ErrNotOwner
		}
		if userID == team.OwnerID {
			return ErrCaptainRemoval
		}
		res := tx.Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&models.TeamPlayer{})
		if res.Error != nil {
			return fmt.Errorf("remove player: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "team player", ID: userID}
		}
		log.Printf("👥 [TEAM] %s removed %s from %s", actorID, userID, team.Code)
		return nil
	})
}
