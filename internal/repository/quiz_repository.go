package repository

import (
	"context"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/util"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// AttemptFilter 为空字段不参与过滤
type AttemptFilter struct {
	UserID      string
	EducationID string
}

// SubmitUpdate 提交时一次性写入的内容
type SubmitUpdate struct {
	Selections  map[string]*int // questionID -> 选择的下标，nil 表示未作答
	Score       int
	Passed      bool
	Department  string
	SubmittedAt time.Time
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

func (r *QuizRepository) FindAttempt(ctx context.Context, id string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindOpenAttempt 返回最近一次未提交的尝试，不存在时返回 nil, nil
func (r *QuizRepository) FindOpenAttempt(ctx context.Context, userID, educationID string) (*model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND education_id = ? AND submitted_at IS NULL", userID, educationID).
		Order("created_at desc").
		Limit(1).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, nil
	}
	return &attempts[0], nil
}

// CountAttempts 包含软删除的记录，保证回合号不复用
func (r *QuizRepository) CountAttempts(ctx context.Context, userID, educationID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Unscoped().Model(&model.QuizAttempt{}).
		Where("user_id = ? AND education_id = ?", userID, educationID).
		Count(&count).Error
	return count, err
}

// CreateAttemptWithQuestions 在同一事务中创建尝试及其题目。
// 同一 (user, education) 已有未提交尝试时返回 util.ErrStartConflict。
func (r *QuizRepository) CreateAttemptWithQuestions(ctx context.Context, attempt *model.QuizAttempt, questions []model.QuizQuestion) error {
	if len(questions) == 0 {
		return util.ErrNoQuestions
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&model.QuizAttempt{}).
			Where("user_id = ? AND education_id = ?", attempt.UserID, attempt.EducationID).
			Count(&count).Error; err != nil {
			return err
		}
		attempt.AttemptNo = int(count) + 1
		key := model.OpenKeyFor(attempt.UserID, attempt.EducationID)
		attempt.OpenKey = &key

		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].AttemptID = attempt.ID
		}
		return tx.Create(&questions).Error
	})
	if isDuplicateKey(err) {
		return util.ErrStartConflict
	}
	return err
}

func (r *QuizRepository) ListQuestions(ctx context.Context, attemptID string) ([]model.QuizQuestion, error) {
	var qs []model.QuizQuestion
	err := r.DB.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_order asc").
		Find(&qs).Error
	return qs, err
}

func selectionValue(sel *int) interface{} {
	if sel == nil {
		return nil
	}
	return *sel
}

// SaveDraftAnswers 临时保存作答，尝试已提交时返回 util.ErrAlreadySubmitted
func (r *QuizRepository) SaveDraftAnswers(ctx context.Context, attemptID string, selections map[string]*int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// MySQL/Postgres 下加行锁，与提交串行；SQLite 忽略该子句
		var a model.QuizAttempt
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, "id = ?", attemptID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrAttemptNotFound
			}
			return err
		}
		if a.IsSubmitted() {
			return util.ErrAlreadySubmitted
		}

		for qid, sel := range selections {
			if err := tx.Model(&model.QuizQuestion{}).
				Where("id = ? AND attempt_id = ?", qid, attemptID).
				Update("user_selected_option_idx", selectionValue(sel)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SubmitAttempt 条件更新 submitted_at IS NULL，保证同一尝试只能提交一次
func (r *QuizRepository) SubmitAttempt(ctx context.Context, attemptID string, upd SubmitUpdate) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.QuizAttempt{}).
			Where("id = ? AND submitted_at IS NULL", attemptID).
			Updates(map[string]interface{}{
				"submitted_at": upd.SubmittedAt,
				"score":        upd.Score,
				"passed":       upd.Passed,
				"department":   upd.Department,
				"open_key":     nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrAlreadySubmitted
		}

		for qid, sel := range upd.Selections {
			if err := tx.Model(&model.QuizQuestion{}).
				Where("id = ? AND attempt_id = ?", qid, attemptID).
				Update("user_selected_option_idx", selectionValue(sel)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordLeave 原子累加离开次数；首次离开时创建记录。
// 尝试已提交时返回 util.ErrAlreadySubmitted，与提交共用行锁串行
func (r *QuizRepository) RecordLeave(ctx context.Context, attemptID string, at time.Time, seconds int) (*model.QuizLeaveTracking, error) {
	var out model.QuizLeaveTracking
	var err error
	// 并发首次创建冲突时重试一次，第二次必然走累加分支
	for i := 0; i < 2; i++ {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var a model.QuizAttempt
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id", "submitted_at").
				First(&a, "id = ?", attemptID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return util.ErrAttemptNotFound
				}
				return err
			}
			if a.IsSubmitted() {
				return util.ErrAlreadySubmitted
			}

			res := tx.Model(&model.QuizLeaveTracking{}).
				Where("attempt_id = ?", attemptID).
				Updates(map[string]interface{}{
					"leave_count":         gorm.Expr("leave_count + ?", 1),
					"total_leave_seconds": gorm.Expr("total_leave_seconds + ?", seconds),
					"last_leave_at":       at,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				t := &model.QuizLeaveTracking{
					AttemptID:         attemptID,
					LeaveCount:        1,
					TotalLeaveSeconds: seconds,
					LastLeaveAt:       at,
				}
				if err := tx.Create(t).Error; err != nil {
					return err
				}
			}
			return tx.Where("attempt_id = ?", attemptID).First(&out).Error
		})
		if !isDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindLeave 没有离开记录时返回 nil, nil
func (r *QuizRepository) FindLeave(ctx context.Context, attemptID string) (*model.QuizLeaveTracking, error) {
	var ts []model.QuizLeaveTracking
	if err := r.DB.WithContext(ctx).Where("attempt_id = ?", attemptID).Limit(1).Find(&ts).Error; err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, nil
	}
	return &ts[0], nil
}

func (r *QuizRepository) ListSubmittedAttempts(ctx context.Context, filter AttemptFilter) ([]model.QuizAttempt, error) {
	query := r.DB.WithContext(ctx).Where("submitted_at IS NOT NULL")
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.EducationID != "" {
		query = query.Where("education_id = ?", filter.EducationID)
	}

	var attempts []model.QuizAttempt
	err := query.Order("created_at desc").Find(&attempts).Error
	return attempts, err
}

// SubmittedStems 用户在该课程已提交尝试中见过的题干（去重，用于重考排除）
func (r *QuizRepository) SubmittedStems(ctx context.Context, userID, educationID string) ([]string, error) {
	var stems []string
	err := r.DB.WithContext(ctx).Model(&model.QuizQuestion{}).
		Joins("JOIN quiz_attempts a ON a.id = quiz_questions.attempt_id").
		Where("a.user_id = ? AND a.education_id = ? AND a.submitted_at IS NOT NULL AND a.deleted_at IS NULL", userID, educationID).
		Order("a.created_at asc, quiz_questions.question_order asc").
		Pluck("quiz_questions.stem", &stems).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(stems))
	out := stems[:0]
	for _, s := range stems {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// SoftDeleteAttempt 尝试与其题目、离开记录一起软删除
func (r *QuizRepository) SoftDeleteAttempt(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.QuizAttempt
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrAttemptNotFound
			}
			return err
		}
		// 释放 open_key，否则唯一索引会阻止该用户重新开始
		if a.OpenKey != nil {
			if err := tx.Model(&a).Update("open_key", nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("attempt_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("attempt_id = ?", id).Delete(&model.QuizLeaveTracking{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.QuizAttempt{}, "id = ?", id).Error
	})
}
