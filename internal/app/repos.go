package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/nutripath-backend/internal/data/repos/auth"
	"github.com/yungbote/nutripath-backend/internal/data/repos/journey"
	"github.com/yungbote/nutripath-backend/internal/data/repos/tracking"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
)

type Repos struct {
	User          auth.UserRepo
	UserToken     auth.UserTokenRepo
	UserStage     journey.UserStageRepo
	UserStageTask journey.UserStageTaskRepo
	MealLog       tracking.MealLogRepo
	WeighIn       tracking.WeighInRepo
	HabitCheck    tracking.HabitCheckRepo
	EducationRead tracking.EducationReadRepo
	UserTargets   tracking.UserTargetsRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          auth.NewUserRepo(db, log),
		UserToken:     auth.NewUserTokenRepo(db, log),
		UserStage:     journey.NewUserStageRepo(db, log),
		UserStageTask: journey.NewUserStageTaskRepo(db, log),
		MealLog:       tracking.NewMealLogRepo(db, log),
		WeighIn:       tracking.NewWeighInRepo(db, log),
		HabitCheck:    tracking.NewHabitCheckRepo(db, log),
		EducationRead: tracking.NewEducationReadRepo(db, log),
		UserTargets:   tracking.NewUserTargetsRepo(db, log),
	}
}
