package service

import (
	"context"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/util"
	"edu_quiz_backend/pkg/logger"
	"edu_quiz_backend/pkg/monitoring"
	"edu_quiz_backend/pkg/tracing"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const archiveTimeout = 10 * time.Second

type QuizService struct {
	Store    AttemptStore
	Source   QuestionSource
	Grader   *Grader
	Locker   StartLocker
	Archiver AttemptArchiver // 可为 nil

	mu     sync.RWMutex
	quiz   config.QuizConfig
	source config.QuestionSourceConfig

	now func() time.Time
}

func NewQuizService(store AttemptStore, source QuestionSource, locker StartLocker, archiver AttemptArchiver, cfg *config.Config) *QuizService {
	if locker == nil {
		locker = NewLocalStartLocker()
	}
	return &QuizService{
		Store:    store,
		Source:   source,
		Grader:   NewGrader(cfg.Quiz.PassScore),
		Locker:   locker,
		Archiver: archiver,
		quiz:     cfg.Quiz,
		source:   cfg.QuestionSource,
		now:      time.Now,
	}
}

// ApplyConfig 配置热更新：及格线、次数上限、时间限制等
func (s *QuizService) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	s.quiz = cfg.Quiz
	s.source.Language = cfg.QuestionSource.Language
	s.source.NumQuestions = cfg.QuestionSource.NumQuestions
	s.source.MaxOptions = cfg.QuestionSource.MaxOptions
	s.mu.Unlock()
	s.Grader.SetPassScore(cfg.Quiz.PassScore)
}

func (s *QuizService) settings() (config.QuizConfig, config.QuestionSourceConfig) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quiz, s.source
}

// Start 存在未提交的尝试时原样返回（续答），否则出题并创建新尝试
func (s *QuizService) Start(ctx context.Context, educationID, userID string) (*StartResp, error) {
	open, err := s.Store.FindOpenAttempt(ctx, userID, educationID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return s.resume(ctx, open)
	}

	unlock, err := s.Locker.Lock(ctx, model.OpenKeyFor(userID, educationID))
	if err != nil {
		return nil, fmt.Errorf("acquire start lock: %w", err)
	}
	defer unlock()

	// 拿到锁后再查一次，并发请求可能已创建
	open, err = s.Store.FindOpenAttempt(ctx, userID, educationID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return s.resume(ctx, open)
	}

	quizCfg, srcCfg := s.settings()

	count, err := s.Store.CountAttempts(ctx, userID, educationID)
	if err != nil {
		return nil, err
	}
	exclude, err := s.Store.SubmittedStems(ctx, userID, educationID)
	if err != nil {
		return nil, err
	}

	generated, err := s.generate(ctx, GenerateRequest{
		EducationID:  educationID,
		AttemptNo:    int(count) + 1,
		Language:     srcCfg.Language,
		NumQuestions: srcCfg.NumQuestions,
		MaxOptions:   srcCfg.MaxOptions,
		ExcludeStems: exclude,
	})
	if err != nil {
		monitoring.GenerationFailures.Inc()
		logger.Log.Error("出题失败",
			zap.String("education_id", educationID),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, err
	}

	attempt := &model.QuizAttempt{
		UserID:      userID,
		EducationID: educationID,
	}
	if quizCfg.DefaultTimeLimit > 0 {
		limit := quizCfg.DefaultTimeLimit
		attempt.TimeLimit = &limit
	}

	questions := make([]model.QuizQuestion, len(generated))
	for i, g := range generated {
		questions[i] = model.QuizQuestion{
			Stem:             g.Stem,
			Options:          model.Choices(g.Options),
			CorrectOptionIdx: g.CorrectIndex,
			Explanation:      g.Explanation,
			QuestionOrder:    i,
		}
	}

	if err := s.Store.CreateAttemptWithQuestions(ctx, attempt, questions); err != nil {
		if errors.Is(err, util.ErrStartConflict) {
			// 其他实例抢先创建，返回对方的尝试
			open, findErr := s.Store.FindOpenAttempt(ctx, userID, educationID)
			if findErr == nil && open != nil {
				return s.resume(ctx, open)
			}
		}
		return nil, err
	}

	monitoring.AttemptsStarted.WithLabelValues("created").Inc()
	logger.Log.Info("创建测验尝试",
		zap.String("attempt_id", attempt.ID),
		zap.String("education_id", educationID),
		zap.String("user_id", userID),
		zap.Int("attempt_no", attempt.AttemptNo),
		zap.Int("questions", len(questions)))

	return &StartResp{
		AttemptID: attempt.ID,
		AttemptNo: attempt.AttemptNo,
		TimeLimit: attempt.TimeLimit,
		Questions: toQuestionItems(questions),
	}, nil
}

func (s *QuizService) generate(ctx context.Context, req GenerateRequest) ([]GeneratedQuestion, error) {
	ctx, span := tracing.StartSpan(ctx, "QuestionSource.Generate",
		attribute.String("quiz.education_id", req.EducationID),
		attribute.Int("quiz.attempt_no", req.AttemptNo),
		attribute.Int("quiz.num_questions", req.NumQuestions))

	qs, err := s.Source.Generate(ctx, req)
	if err == nil && len(qs) == 0 {
		err = errors.New("empty question set")
	}
	if err != nil && !errors.Is(err, util.ErrQuestionGenerationFailed) {
		err = fmt.Errorf("%w: %v", util.ErrQuestionGenerationFailed, err)
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return qs, nil
}

func (s *QuizService) resume(ctx context.Context, a *model.QuizAttempt) (*StartResp, error) {
	qs, err := s.Store.ListQuestions(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	monitoring.AttemptsStarted.WithLabelValues("resumed").Inc()
	logger.Log.Debug("续答测验尝试", zap.String("attempt_id", a.ID), zap.String("user_id", a.UserID))

	return &StartResp{
		AttemptID: a.ID,
		AttemptNo: a.AttemptNo,
		TimeLimit: a.TimeLimit,
		Resumed:   true,
		Questions: toQuestionItems(qs),
	}, nil
}

func toQuestionItems(qs []model.QuizQuestion) []QuestionItem {
	items := make([]QuestionItem, len(qs))
	for i, q := range qs {
		items[i] = QuestionItem{
			QuestionID:        q.ID,
			Order:             q.QuestionOrder,
			Question:          q.Stem,
			Choices:           []string(q.Options),
			UserSelectedIndex: q.UserSelectedOptionIdx,
		}
	}
	return items
}

// ownedAttempt 不存在或不属于调用方均返回 util.ErrAttemptNotFound
func (s *QuizService) ownedAttempt(ctx context.Context, attemptID, userID string) (*model.QuizAttempt, error) {
	a, err := s.Store.FindAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if !a.OwnedBy(userID) {
		return nil, util.ErrAttemptNotFound
	}
	return a, nil
}

// submittedAttempt 结果、错题本只对已提交的尝试可见
func (s *QuizService) submittedAttempt(ctx context.Context, attemptID, userID string) (*model.QuizAttempt, []model.QuizQuestion, error) {
	a, err := s.ownedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !a.IsSubmitted() {
		return nil, nil, util.ErrAttemptNotFound
	}
	qs, err := s.Store.ListQuestions(ctx, a.ID)
	if err != nil {
		return nil, nil, err
	}
	return a, qs, nil
}

// indexAnswers 校验题目归属与重复，返回 questionID -> 选择
func indexAnswers(qs []model.QuizQuestion, answers []AnswerItem) (map[string]*int, error) {
	known := make(map[string]bool, len(qs))
	for _, q := range qs {
		known[q.ID] = true
	}

	out := make(map[string]*int, len(answers))
	for _, ans := range answers {
		if !known[ans.QuestionID] {
			return nil, fmt.Errorf("%w: question %s does not belong to this attempt", util.ErrInvalidAnswer, ans.QuestionID)
		}
		if _, dup := out[ans.QuestionID]; dup {
			return nil, fmt.Errorf("%w: question %s answered twice", util.ErrInvalidAnswer, ans.QuestionID)
		}
		out[ans.QuestionID] = ans.UserSelectedIndex
	}
	return out, nil
}

// Submit 以本次提交为准：未出现在 answers 中的题目视为未作答
func (s *QuizService) Submit(ctx context.Context, attemptID string, caller Caller, answers []AnswerItem) (*SubmitResp, error) {
	a, err := s.ownedAttempt(ctx, attemptID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if a.IsSubmitted() {
		return nil, util.ErrAlreadySubmitted
	}

	qs, err := s.Store.ListQuestions(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	given, err := indexAnswers(qs, answers)
	if err != nil {
		return nil, err
	}

	selections := make(map[string]*int, len(qs))
	for i := range qs {
		sel := given[qs[i].ID]
		qs[i].UserSelectedOptionIdx = sel
		selections[qs[i].ID] = sel
	}

	grade, err := s.Grader.Grade(qs)
	if err != nil {
		return nil, err
	}

	submittedAt := s.now()
	err = s.Store.SubmitAttempt(ctx, a.ID, repository.SubmitUpdate{
		Selections:  selections,
		Score:       grade.Score,
		Passed:      grade.Passed,
		Department:  strings.TrimSpace(caller.Department),
		SubmittedAt: submittedAt,
	})
	if err != nil {
		return nil, err
	}

	monitoring.Submissions.WithLabelValues(strconv.FormatBool(grade.Passed)).Inc()
	logger.Log.Info("提交测验",
		zap.String("attempt_id", a.ID),
		zap.String("education_id", a.EducationID),
		zap.String("user_id", a.UserID),
		zap.Int("score", grade.Score),
		zap.Bool("passed", grade.Passed))

	a.SubmittedAt = &submittedAt
	a.Score = &grade.Score
	a.Passed = &grade.Passed
	a.Department = strings.TrimSpace(caller.Department)
	a.OpenKey = nil
	s.archive(ctx, a, qs)

	return &SubmitResp{
		Score:        grade.Score,
		Passed:       grade.Passed,
		CorrectCount: grade.CorrectCount,
		WrongCount:   grade.WrongCount,
		TotalCount:   grade.TotalCount,
		SubmittedAt:  submittedAt,
	}, nil
}

// archive 归档失败只记录日志，不影响提交结果
func (s *QuizService) archive(ctx context.Context, a *model.QuizAttempt, qs []model.QuizQuestion) {
	if s.Archiver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	leave, err := s.Store.FindLeave(ctx, a.ID)
	if err != nil {
		logger.Log.Warn("读取离开记录失败", zap.String("attempt_id", a.ID), zap.Error(err))
	}
	if err := s.Archiver.Archive(ctx, NewAttemptSnapshot(a, qs, leave, s.now())); err != nil {
		logger.Log.Warn("归档作答失败", zap.String("attempt_id", a.ID), zap.Error(err))
	}
}

func (s *QuizService) Result(ctx context.Context, attemptID, userID string) (*ResultResp, error) {
	a, qs, err := s.submittedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	grade, err := s.Grader.Grade(qs)
	if err != nil {
		return nil, err
	}

	// 分数与是否通过以提交时的记录为准，及格线之后调整不影响
	resp := &ResultResp{
		Score:        grade.Score,
		Passed:       grade.Passed,
		CorrectCount: grade.CorrectCount,
		WrongCount:   grade.WrongCount,
		TotalCount:   grade.TotalCount,
		FinishedAt:   *a.SubmittedAt,
	}
	if a.Score != nil {
		resp.Score = *a.Score
	}
	if a.Passed != nil {
		resp.Passed = *a.Passed
	}
	return resp, nil
}

func (s *QuizService) Wrongs(ctx context.Context, attemptID, userID string) ([]WrongNote, error) {
	_, qs, err := s.submittedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	return BuildWrongNotes(qs), nil
}

// SaveDraft 临时保存，只更新 answers 中出现的题目
func (s *QuizService) SaveDraft(ctx context.Context, attemptID, userID string, answers []AnswerItem) (*SaveResp, error) {
	a, err := s.ownedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if a.IsSubmitted() {
		return nil, util.ErrAlreadySubmitted
	}

	qs, err := s.Store.ListQuestions(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	selections, err := indexAnswers(qs, answers)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveDraftAnswers(ctx, a.ID, selections); err != nil {
		return nil, err
	}

	return &SaveResp{Saved: true, SavedCount: len(selections), SavedAt: s.now()}, nil
}

// Leave 记录离开事件。客户端时间戳与时长按尝试时间范围截断
func (s *QuizService) Leave(ctx context.Context, attemptID, userID string, req LeaveReq) (*LeaveResp, error) {
	a, err := s.ownedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if a.IsSubmitted() {
		return nil, util.ErrAlreadySubmitted
	}

	quizCfg, _ := s.settings()
	at := clampLeaveTime(req.Timestamp, a.CreatedAt, s.now(), quizCfg.LeaveClockSkew)
	seconds := clampLeaveSeconds(req.LeaveSeconds, a.TimeLimit)

	tr, err := s.Store.RecordLeave(ctx, a.ID, at, seconds)
	if err != nil {
		return nil, err
	}

	monitoring.LeaveEvents.Inc()
	logger.Log.Debug("记录离开",
		zap.String("attempt_id", a.ID),
		zap.String("reason", req.Reason),
		zap.Int("leave_count", tr.LeaveCount))

	return &LeaveResp{
		Recorded:          true,
		LeaveCount:        tr.LeaveCount,
		TotalLeaveSeconds: tr.TotalLeaveSeconds,
		LastLeaveAt:       tr.LastLeaveAt,
	}, nil
}

func clampLeaveTime(ts, createdAt, now time.Time, skew time.Duration) time.Time {
	switch {
	case ts.IsZero():
		return now
	case ts.After(now.Add(skew)):
		return now
	case ts.Before(createdAt):
		return createdAt
	}
	return ts
}

func clampLeaveSeconds(seconds *int, timeLimit *int) int {
	if seconds == nil || *seconds < 0 {
		return 0
	}
	if timeLimit != nil && *seconds > *timeLimit {
		return *timeLimit
	}
	return *seconds
}

func (s *QuizService) Timer(ctx context.Context, attemptID, userID string) (*TimerResp, error) {
	a, err := s.ownedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if a.IsSubmitted() {
		return nil, util.ErrAlreadySubmitted
	}

	resp := &TimerResp{
		AttemptID: a.ID,
		TimeLimit: a.TimeLimit,
		StartedAt: a.CreatedAt,
		ExpiresAt: a.ExpiresAt(),
	}
	if resp.ExpiresAt != nil {
		remaining := int(math.Ceil(resp.ExpiresAt.Sub(s.now()).Seconds()))
		if remaining < 0 {
			remaining = 0
		}
		resp.RemainingSeconds = &remaining
		resp.IsExpired = remaining == 0
	}
	return resp, nil
}

// MyAttempts 已提交的尝试，按创建时间倒序；同一课程最高分的尝试标记 IsBestScore
func (s *QuizService) MyAttempts(ctx context.Context, userID string) ([]MyAttemptItem, error) {
	attempts, err := s.Store.ListSubmittedAttempts(ctx, repository.AttemptFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	best := make(map[string]int)
	for i := range attempts {
		a := &attempts[i]
		if b, ok := best[a.EducationID]; !ok || scoreOf(a) > b {
			best[a.EducationID] = scoreOf(a)
		}
	}

	items := make([]MyAttemptItem, 0, len(attempts))
	for _, a := range attempts {
		items = append(items, MyAttemptItem{
			AttemptID:   a.ID,
			EducationID: a.EducationID,
			AttemptNo:   a.AttemptNo,
			Score:       scoreOf(&a),
			Passed:      a.Passed != nil && *a.Passed,
			SubmittedAt: *a.SubmittedAt,
			IsBestScore: scoreOf(&a) == best[a.EducationID],
		})
	}
	return items, nil
}

func scoreOf(a *model.QuizAttempt) int {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

// RetryInfo 次数上限只做展示，Start 不强制
func (s *QuizService) RetryInfo(ctx context.Context, educationID, userID string) (*RetryInfoResp, error) {
	attempts, err := s.Store.ListSubmittedAttempts(ctx, repository.AttemptFilter{UserID: userID, EducationID: educationID})
	if err != nil {
		return nil, err
	}
	quizCfg, _ := s.settings()

	resp := &RetryInfoResp{
		EducationID:  educationID,
		AttemptCount: len(attempts),
		MaxAttempts:  quizCfg.MaxAttempts,
		CanRetry:     true,
	}
	if quizCfg.MaxAttempts > 0 {
		remaining := quizCfg.MaxAttempts - len(attempts)
		if remaining < 0 {
			remaining = 0
		}
		resp.RemainingAttempts = &remaining
		resp.CanRetry = remaining > 0
	}

	for i := range attempts {
		a := &attempts[i]
		sc := scoreOf(a)
		if resp.BestScore == nil || sc > *resp.BestScore {
			resp.BestScore = &sc
		}
		if a.Passed != nil && *a.Passed {
			resp.Passed = true
		}
		if resp.LastSubmittedAt == nil || a.SubmittedAt.After(*resp.LastSubmittedAt) {
			resp.LastSubmittedAt = a.SubmittedAt
		}
	}
	return resp, nil
}

// DepartmentStats 每个用户取最高分的一次提交，按部门汇总
func (s *QuizService) DepartmentStats(ctx context.Context, educationID string) ([]DepartmentStat, error) {
	attempts, err := s.Store.ListSubmittedAttempts(ctx, repository.AttemptFilter{EducationID: educationID})
	if err != nil {
		return nil, err
	}

	bestByUser := make(map[string]*model.QuizAttempt)
	for i := range attempts {
		a := &attempts[i]
		cur, ok := bestByUser[a.UserID]
		if !ok || scoreOf(a) > scoreOf(cur) {
			bestByUser[a.UserID] = a
		}
	}

	type agg struct {
		participants int
		scoreSum     int
		passed       int
	}
	byDept := make(map[string]*agg)
	for _, a := range bestByUser {
		dept := strings.TrimSpace(a.Department)
		if dept == "" {
			dept = util.DepartmentUnknown
		}
		g, ok := byDept[dept]
		if !ok {
			g = &agg{}
			byDept[dept] = g
		}
		g.participants++
		g.scoreSum += scoreOf(a)
		if a.Passed != nil && *a.Passed {
			g.passed++
		}
	}

	stats := make([]DepartmentStat, 0, len(byDept))
	for dept, g := range byDept {
		stats = append(stats, DepartmentStat{
			Department:       dept,
			ParticipantCount: g.participants,
			AverageScore:     round1(float64(g.scoreSum) / float64(g.participants)),
			PassCount:        g.passed,
			PassRate:         round1(100 * float64(g.passed) / float64(g.participants)),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Department < stats[j].Department })
	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
