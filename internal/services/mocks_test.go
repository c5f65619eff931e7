package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lingoroots/backend/internal/feedback"
	"github.com/lingoroots/backend/internal/ledger"
	"github.com/lingoroots/backend/internal/models"
	"github.com/lingoroots/backend/internal/quizrunner"
	"github.com/lingoroots/backend/internal/tasks"
)

// mockUserRepository is an in-memory users table
type mockUserRepository struct {
	users        map[int]*models.User
	nextID       int
	err          error
	createErr    error
	resetSince   time.Time
	resetCount   int
	updatedRole  models.Role
	top          []models.LeaderboardEntry
	topErr       error
	listLimit    int
	listOffset   int
	selectedLang string
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: map[int]*models.User{}, nextID: 1}
	for _, u := range users {
		m.users[u.ID] = u
		if u.ID >= m.nextID {
			m.nextID = u.ID + 1
		}
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = m.nextID
	m.nextID++
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %w", models.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %w", models.ErrNotFound)
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %w", models.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int, req *models.UpdateProfileRequest) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %w", models.ErrNotFound)
	}
	if req.DisplayName != nil {
		u.DisplayName = *req.DisplayName
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	return nil
}

func (m *mockUserRepository) UpdateSelectedLanguage(ctx context.Context, id int, languageID string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %w", models.ErrNotFound)
	}
	u.SelectedLanguageID = &languageID
	m.selectedLang = languageID
	return nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id int, role models.Role) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %w", models.ErrNotFound)
	}
	u.Role = role
	m.updatedRole = role
	return nil
}

func (m *mockUserRepository) List(ctx context.Context, limit, offset int) ([]models.UserListItem, int, error) {
	m.listLimit, m.listOffset = limit, offset
	return []models.UserListItem{}, len(m.users), m.err
}

func (m *mockUserRepository) ResetStaleStreaks(ctx context.Context, activeSince time.Time) (int, error) {
	m.resetSince = activeSince
	return m.resetCount, m.err
}

func (m *mockUserRepository) TopByPoints(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if m.topErr != nil {
		return nil, m.topErr
	}
	out := append([]models.LeaderboardEntry{}, m.top...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockUserTokenRepository is an in-memory user_tokens table
type mockUserTokenRepository struct {
	tokens    map[string]int
	err       error
	updateErr error
}

func newMockUserTokenRepository() *mockUserTokenRepository {
	return &mockUserTokenRepository{tokens: map[string]int{}}
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	if m.err != nil {
		return m.err
	}
	m.tokens[userToken.Token] = userToken.UserID
	return nil
}

func (m *mockUserTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	userID, ok := m.tokens[token]
	if !ok {
		return nil, fmt.Errorf("user token %w", models.ErrNotFound)
	}
	return &models.UserToken{UserID: userID, Token: token}, nil
}

func (m *mockUserTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	delete(m.tokens, oldToken)
	m.tokens[newToken] = userID
	return nil
}

func (m *mockUserTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func (m *mockUserTokenRepository) DeleteByUserID(ctx context.Context, userID int) error {
	for token, id := range m.tokens {
		if id == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

// mockPasswordResetRepository keeps reset tokens in memory
type mockPasswordResetRepository struct {
	tokens    map[string]*models.PasswordResetToken
	err       error
	deleteErr error
}

func newMockPasswordResetRepository() *mockPasswordResetRepository {
	return &mockPasswordResetRepository{tokens: map[string]*models.PasswordResetToken{}}
}

func (m *mockPasswordResetRepository) Create(ctx context.Context, t *models.PasswordResetToken) error {
	if m.err != nil {
		return m.err
	}
	m.DeleteByUserID(ctx, t.UserID)
	m.tokens[t.Token] = t
	return nil
}

func (m *mockPasswordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return nil, fmt.Errorf("password reset token %w", models.ErrNotFound)
	}
	return t, nil
}

func (m *mockPasswordResetRepository) DeleteByUserID(ctx context.Context, userID int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for token, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

// mockEmailEnqueuer records enqueued e-mails
type mockEmailEnqueuer struct {
	mu     sync.Mutex
	emails []tasks.EmailPayload
	err    error
}

func (m *mockEmailEnqueuer) EnqueueEmail(ctx context.Context, p tasks.EmailPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.emails = append(m.emails, p)
	return nil
}

// mockLanguageRepository is an in-memory languages table
type mockLanguageRepository struct {
	languages map[string]*models.Language
	err       error
}

func newMockLanguageRepository(languages ...models.Language) *mockLanguageRepository {
	m := &mockLanguageRepository{languages: map[string]*models.Language{}}
	for i := range languages {
		l := languages[i]
		m.languages[l.ID] = &l
	}
	return m
}

func (m *mockLanguageRepository) List(ctx context.Context, includeInactive bool) ([]models.Language, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []models.Language{}
	for _, l := range m.languages {
		if l.IsActive || includeInactive {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockLanguageRepository) GetByID(ctx context.Context, id string) (*models.Language, error) {
	if m.err != nil {
		return nil, m.err
	}
	l, ok := m.languages[id]
	if !ok {
		return nil, fmt.Errorf("language %w", models.ErrNotFound)
	}
	copied := *l
	return &copied, nil
}

func (m *mockLanguageRepository) Create(ctx context.Context, l *models.Language) error {
	if _, ok := m.languages[l.ID]; ok {
		return fmt.Errorf("language %s: %w", l.ID, models.ErrConflict)
	}
	copied := *l
	m.languages[l.ID] = &copied
	return nil
}

func (m *mockLanguageRepository) Update(ctx context.Context, id string, req *models.UpdateLanguageRequest) error {
	l, ok := m.languages[id]
	if !ok {
		return fmt.Errorf("language %w", models.ErrNotFound)
	}
	if req.Name != nil {
		l.Name = *req.Name
	}
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
	return nil
}

func (m *mockLanguageRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.languages[id]; !ok {
		return fmt.Errorf("language %w", models.ErrNotFound)
	}
	delete(m.languages, id)
	return nil
}

// mockLessonRepository is an in-memory lessons table
type mockLessonRepository struct {
	lessons      map[int]*models.Lesson
	list         []models.LessonListItem
	nextID       int
	updatedVocab []models.VocabularyItem
	err          error
}

func newMockLessonRepository(lessons ...models.Lesson) *mockLessonRepository {
	m := &mockLessonRepository{lessons: map[int]*models.Lesson{}, nextID: 100}
	for i := range lessons {
		l := lessons[i]
		m.lessons[l.ID] = &l
	}
	return m
}

func (m *mockLessonRepository) ListByLanguage(ctx context.Context, languageID string, userID int) ([]models.LessonListItem, error) {
	return append([]models.LessonListItem{}, m.list...), m.err
}

func (m *mockLessonRepository) GetByID(ctx context.Context, languageID string, id int) (*models.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	l, ok := m.lessons[id]
	if !ok || l.LanguageID != languageID {
		return nil, fmt.Errorf("lesson %w", models.ErrNotFound)
	}
	copied := *l
	copied.Vocabulary = append([]models.VocabularyItem{}, l.Vocabulary...)
	return &copied, nil
}

func (m *mockLessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = m.nextID
	m.nextID++
	copied := *lesson
	m.lessons[lesson.ID] = &copied
	return nil
}

func (m *mockLessonRepository) Update(ctx context.Context, languageID string, id int, req *models.UpdateLessonRequest) error {
	l, ok := m.lessons[id]
	if !ok || l.LanguageID != languageID {
		return fmt.Errorf("lesson %w", models.ErrNotFound)
	}
	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Order != nil {
		l.Order = *req.Order
	}
	return nil
}

func (m *mockLessonRepository) UpdateVocabulary(ctx context.Context, id int, vocabulary []models.VocabularyItem) error {
	if m.err != nil {
		return m.err
	}
	m.updatedVocab = vocabulary
	m.lessons[id].Vocabulary = vocabulary
	return nil
}

func (m *mockLessonRepository) Delete(ctx context.Context, languageID string, id int) error {
	l, ok := m.lessons[id]
	if !ok || l.LanguageID != languageID {
		return fmt.Errorf("lesson %w", models.ErrNotFound)
	}
	delete(m.lessons, id)
	return nil
}

// mockQuizRepository is an in-memory quizzes table
type mockQuizRepository struct {
	quizzes map[int]*models.Quiz
	nextID  int
	created *models.Quiz
	err     error
}

func newMockQuizRepository(quizzes ...models.Quiz) *mockQuizRepository {
	m := &mockQuizRepository{quizzes: map[int]*models.Quiz{}, nextID: 500}
	for i := range quizzes {
		q := quizzes[i]
		m.quizzes[q.ID] = &q
	}
	return m
}

func (m *mockQuizRepository) ListByLanguage(ctx context.Context, languageID string, lessonID *int, userID int) ([]models.QuizListItem, error) {
	out := []models.QuizListItem{}
	for _, q := range m.quizzes {
		if q.LanguageID != languageID || (lessonID != nil && q.LessonID != *lessonID) {
			continue
		}
		out = append(out, models.QuizListItem{ID: q.ID, LanguageID: q.LanguageID, LessonID: q.LessonID, Title: q.Title})
	}
	return out, m.err
}

func (m *mockQuizRepository) GetByID(ctx context.Context, languageID string, id int) (*models.Quiz, error) {
	if m.err != nil {
		return nil, m.err
	}
	q, ok := m.quizzes[id]
	if !ok || q.LanguageID != languageID {
		return nil, fmt.Errorf("quiz %w", models.ErrNotFound)
	}
	copied := *q
	return &copied, nil
}

func (m *mockQuizRepository) GetFirstByLesson(ctx context.Context, languageID string, lessonID int) (*models.Quiz, error) {
	ids := make([]int, 0, len(m.quizzes))
	for id := range m.quizzes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		q := m.quizzes[id]
		if q.LanguageID == languageID && q.LessonID == lessonID {
			copied := *q
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("quiz %w", models.ErrNotFound)
}

func (m *mockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	quiz.ID = m.nextID
	m.nextID++
	for i := range quiz.Questions {
		quiz.Questions[i].ID = i + 1
	}
	copied := *quiz
	m.quizzes[quiz.ID] = &copied
	m.created = &copied
	return nil
}

func (m *mockQuizRepository) Update(ctx context.Context, languageID string, id int, req *models.UpdateQuizRequest) error {
	q, ok := m.quizzes[id]
	if !ok || q.LanguageID != languageID {
		return fmt.Errorf("quiz %w", models.ErrNotFound)
	}
	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.Questions != nil {
		q.Questions = models.ToQuestions(*req.Questions)
	}
	return nil
}

func (m *mockQuizRepository) Delete(ctx context.Context, languageID string, id int) error {
	q, ok := m.quizzes[id]
	if !ok || q.LanguageID != languageID {
		return fmt.Errorf("quiz %w", models.ErrNotFound)
	}
	delete(m.quizzes, id)
	return nil
}

// mockProgressRepository mimics the transactional ledger write in memory
type mockProgressRepository struct {
	mu       sync.Mutex
	progress map[int]models.Progress
	events   map[string]bool
	applyErr error
	applied  int
}

func newMockProgressRepository() *mockProgressRepository {
	return &mockProgressRepository{progress: map[int]models.Progress{}, events: map[string]bool{}}
}

func (m *mockProgressRepository) Get(ctx context.Context, userID int) (*models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[userID]
	if !ok {
		return nil, fmt.Errorf("user %w", models.ErrNotFound)
	}
	c := p.Clone()
	return &c, nil
}

func (m *mockProgressRepository) Apply(ctx context.Context, ev models.ProgressEvent, mutate func(models.Progress) (ledger.Outcome, error)) (ledger.Outcome, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.progress[ev.UserID]
	if !ok {
		return ledger.Outcome{}, false, fmt.Errorf("user %w", models.ErrNotFound)
	}
	key := fmt.Sprintf("%d/%s", ev.UserID, ev.EventID)
	if m.events[key] {
		return ledger.Outcome{Progress: current.Clone()}, false, nil
	}
	out, err := mutate(current.Clone())
	if err != nil {
		return ledger.Outcome{}, false, err
	}
	if !out.Changed {
		return out, false, nil
	}
	if m.applyErr != nil {
		return ledger.Outcome{}, false, m.applyErr
	}
	m.events[key] = true
	m.progress[ev.UserID] = out.Progress
	m.applied++
	return out, true, nil
}

// mockAchievementRepository returns fixed achievements
type mockAchievementRepository struct {
	all     []models.Achievement
	forUser []models.Achievement
	err     error
}

func (m *mockAchievementRepository) ListAll(ctx context.Context) ([]models.Achievement, error) {
	return m.all, m.err
}

func (m *mockAchievementRepository) ListForUser(ctx context.Context, userID int) ([]models.Achievement, error) {
	return m.forUser, m.err
}

// mockLeaderboard is an in-memory leaderboard cache
type mockLeaderboard struct {
	mu       sync.Mutex
	scores   map[int]int
	names    map[int]string
	err      error
	built    bool
	replaced []models.LeaderboardEntry
}

func newMockLeaderboard() *mockLeaderboard {
	return &mockLeaderboard{scores: map[int]int{}, names: map[int]string{}}
}

func (m *mockLeaderboard) SetScore(ctx context.Context, userID int, displayName string, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if points > m.scores[userID] || !m.has(userID) {
		m.scores[userID] = points
	}
	m.names[userID] = displayName
	return nil
}

func (m *mockLeaderboard) has(userID int) bool {
	_, ok := m.scores[userID]
	return ok
}

func (m *mockLeaderboard) SetName(ctx context.Context, userID int, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.scores[userID]; ok {
		m.names[userID] = displayName
	}
	return nil
}

func (m *mockLeaderboard) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	out := []models.LeaderboardEntry{}
	for id, points := range m.scores {
		out = append(out, models.LeaderboardEntry{UserID: id, DisplayName: m.names[id], Points: points})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, m.built, nil
}

func (m *mockLeaderboard) Replace(ctx context.Context, entries []models.LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.replaced = entries
	m.built = true
	m.scores = map[int]int{}
	m.names = map[int]string{}
	for _, e := range entries {
		m.scores[e.UserID] = e.Points
		m.names[e.UserID] = e.DisplayName
	}
	return nil
}

// mockAttemptStore keeps attempts JSON encoded, like the Redis store
type mockAttemptStore struct {
	mu        sync.Mutex
	attempts  map[string][]byte
	updateErr error
}

func newMockAttemptStore() *mockAttemptStore {
	return &mockAttemptStore{attempts: map[string][]byte{}}
}

func (m *mockAttemptStore) Create(ctx context.Context, a *quizrunner.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.ID]; ok {
		return fmt.Errorf("attempt %s: %w", a.ID, models.ErrConflict)
	}
	data, _ := json.Marshal(a)
	m.attempts[a.ID] = data
	return nil
}

func (m *mockAttemptStore) Get(ctx context.Context, id string) (*quizrunner.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.attempts[id]
	if !ok {
		return nil, fmt.Errorf("attempt %w", models.ErrNotFound)
	}
	var a quizrunner.Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *mockAttemptStore) Update(ctx context.Context, id string, fn func(*quizrunner.Attempt) error) (*quizrunner.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	data, ok := m.attempts[id]
	if !ok {
		return nil, fmt.Errorf("attempt %w", models.ErrNotFound)
	}
	var a quizrunner.Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if err := fn(&a); err != nil {
		return nil, err
	}
	data, _ = json.Marshal(&a)
	m.attempts[id] = data
	return &a, nil
}

// mockFeedbackGenerator returns canned feedback
type mockFeedbackGenerator struct {
	text   string
	err    error
	prompt feedback.Prompt
}

func (m *mockFeedbackGenerator) Generate(ctx context.Context, p feedback.Prompt) (string, error) {
	m.prompt = p
	return m.text, m.err
}

// mockSynthesizer returns the text as audio bytes
type mockSynthesizer struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls int
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail[text] {
		return nil, fmt.Errorf("synthesis failed for %s", text)
	}
	return []byte(text), nil
}

// mockMediaStorage names files after their content
type mockMediaStorage struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (m *mockMediaStorage) Save(mediaType, extension string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	url := fmt.Sprintf("/media/%s/%s.%s", mediaType, data, extension)
	m.saved[url] = data
	return url, nil
}
