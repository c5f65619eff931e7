package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

// audioWorkers bounds concurrent synthesis requests
const audioWorkers = 4

// SpeechSynthesizer turns text into MP3 audio
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// MediaStorage stores generated files and returns their public URL
type MediaStorage interface {
	Save(mediaType, extension string, data []byte) (string, error)
}

// LessonAudioRepository reads lessons and writes back their vocabulary
type LessonAudioRepository interface {
	GetByID(ctx context.Context, languageID string, id int) (*models.Lesson, error)
	UpdateVocabulary(ctx context.Context, id int, vocabulary []models.VocabularyItem) error
}

type audioService struct {
	synth   SpeechSynthesizer
	storage MediaStorage
	lessons LessonAudioRepository
	logger  *zap.Logger
}

// NewAudioService creates a new audio service. A nil synthesizer disables generation.
func NewAudioService(synth SpeechSynthesizer, storage MediaStorage, lessons LessonAudioRepository, logger *zap.Logger) *audioService {
	return &audioService{
		synth:   synth,
		storage: storage,
		lessons: lessons,
		logger:  logger,
	}
}

type audioJob struct {
	index int
	term  string
}

type audioResult struct {
	index int
	url   string
	err   error
}

// GenerateLessonAudio synthesizes audio for every vocabulary term of a lesson
// that has none yet and stores the URLs on the lesson. Terms that fail are
// skipped and keep no audio.
func (s *audioService) GenerateLessonAudio(ctx context.Context, languageID string, lessonID int) (*models.AudioGenerationResult, error) {
	if s.synth == nil {
		return nil, fmt.Errorf("%w: audio generation is not configured", models.ErrUnavailable)
	}

	lesson, err := s.lessons.GetByID(ctx, languageID, lessonID)
	if err != nil {
		return nil, err
	}

	var pending []audioJob
	for i, item := range lesson.Vocabulary {
		if item.AudioURL == "" && strings.TrimSpace(item.Term) != "" {
			pending = append(pending, audioJob{index: i, term: item.Term})
		}
	}
	result := &models.AudioGenerationResult{LessonID: lessonID, Terms: []string{}}
	if len(pending) == 0 {
		return result, nil
	}

	jobs := make(chan audioJob, len(pending))
	results := make(chan audioResult, len(pending))
	var wg sync.WaitGroup

	for i := 0; i < min(audioWorkers, len(pending)); i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, "audio_"+languageID, jobs, results)
	}
	for _, job := range pending {
		jobs <- job
	}
	close(jobs)

	wg.Wait()
	close(results)

	vocabulary := append([]models.VocabularyItem{}, lesson.Vocabulary...)
	var generated []int
	for r := range results {
		if r.err != nil {
			s.logger.Warn("failed to generate audio",
				zap.Int("lesson_id", lessonID),
				zap.String("term", vocabulary[r.index].Term),
				zap.Error(r.err),
			)
			continue
		}
		vocabulary[r.index].AudioURL = r.url
		generated = append(generated, r.index)
	}

	sort.Ints(generated)
	for _, i := range generated {
		result.Terms = append(result.Terms, vocabulary[i].Term)
	}
	result.Generated = len(result.Terms)
	if result.Generated == 0 {
		return nil, fmt.Errorf("%w: audio generation failed for every term", models.ErrUnavailable)
	}

	if err := s.lessons.UpdateVocabulary(ctx, lessonID, vocabulary); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *audioService) worker(ctx context.Context, wg *sync.WaitGroup, mediaType string, jobs <-chan audioJob, results chan<- audioResult) {
	defer wg.Done()
	for job := range jobs {
		audio, err := s.synth.Synthesize(ctx, job.term)
		if err != nil {
			results <- audioResult{index: job.index, err: err}
			continue
		}
		url, err := s.storage.Save(mediaType, "mp3", audio)
		results <- audioResult{index: job.index, url: url, err: err}
	}
}
