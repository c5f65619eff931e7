package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lingoroots/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func vocabularyLesson() models.Lesson {
	return models.Lesson{
		ID:         4,
		LanguageID: "duala",
		Vocabulary: []models.VocabularyItem{
			{Term: "Mbolo", Translation: "Hello"},
			{Term: "Ndolo", Translation: "Love", AudioURL: "/media/audio/duala/old.mp3"},
			{Term: "Sango", Translation: "Father"},
			{Term: "Nyango", Translation: "Mother"},
			{Term: "Muna", Translation: "Child"},
			{Term: "Mboa", Translation: "Home"},
		},
	}
}

func TestAudioService_GenerateLessonAudio(t *testing.T) {
	t.Run("generates missing audio", func(t *testing.T) {
		lessons := newMockLessonRepository(vocabularyLesson())
		synth := &mockSynthesizer{}
		svc := NewAudioService(synth, &mockMediaStorage{}, lessons, zap.NewNop())

		result, err := svc.GenerateLessonAudio(context.Background(), "duala", 4)
		require.NoError(t, err)

		assert.Equal(t, 5, result.Generated)
		assert.Equal(t, []string{"Mbolo", "Sango", "Nyango", "Muna", "Mboa"}, result.Terms)
		assert.Equal(t, 5, synth.calls)

		vocab := lessons.updatedVocab
		require.Len(t, vocab, 6)
		assert.Equal(t, "/media/audio_duala/Mbolo.mp3", vocab[0].AudioURL)
		assert.Equal(t, "/media/audio/duala/old.mp3", vocab[1].AudioURL)
		assert.Equal(t, "/media/audio_duala/Mboa.mp3", vocab[5].AudioURL)
	})

	t.Run("failed terms are skipped", func(t *testing.T) {
		lessons := newMockLessonRepository(vocabularyLesson())
		synth := &mockSynthesizer{fail: map[string]bool{"Sango": true}}
		svc := NewAudioService(synth, &mockMediaStorage{}, lessons, zap.NewNop())

		result, err := svc.GenerateLessonAudio(context.Background(), "duala", 4)
		require.NoError(t, err)

		assert.Equal(t, 4, result.Generated)
		assert.NotContains(t, result.Terms, "Sango")
		assert.Empty(t, lessons.updatedVocab[2].AudioURL)
	})

	t.Run("every term fails", func(t *testing.T) {
		lessons := newMockLessonRepository(models.Lesson{ID: 4, LanguageID: "duala", Vocabulary: []models.VocabularyItem{{Term: "Mbolo"}}})
		synth := &mockSynthesizer{fail: map[string]bool{"Mbolo": true}}
		svc := NewAudioService(synth, &mockMediaStorage{}, lessons, zap.NewNop())

		_, err := svc.GenerateLessonAudio(context.Background(), "duala", 4)
		assert.ErrorIs(t, err, models.ErrUnavailable)
		assert.Nil(t, lessons.updatedVocab)
	})

	t.Run("nothing to generate", func(t *testing.T) {
		lessons := newMockLessonRepository(models.Lesson{ID: 4, LanguageID: "duala", Vocabulary: []models.VocabularyItem{{Term: "Ndolo", AudioURL: "/x.mp3"}}})
		synth := &mockSynthesizer{}
		svc := NewAudioService(synth, &mockMediaStorage{}, lessons, zap.NewNop())

		result, err := svc.GenerateLessonAudio(context.Background(), "duala", 4)
		require.NoError(t, err)
		assert.Zero(t, result.Generated)
		assert.Empty(t, result.Terms)
		assert.Zero(t, synth.calls)
		assert.Nil(t, lessons.updatedVocab)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewAudioService(nil, &mockMediaStorage{}, newMockLessonRepository(vocabularyLesson()), zap.NewNop())
		_, err := svc.GenerateLessonAudio(context.Background(), "duala", 4)
		assert.ErrorIs(t, err, models.ErrUnavailable)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		svc := NewAudioService(&mockSynthesizer{}, &mockMediaStorage{}, newMockLessonRepository(), zap.NewNop())
		_, err := svc.GenerateLessonAudio(context.Background(), "duala", 4)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("update failure", func(t *testing.T) {
		lessons := &failingVocabularyRepo{mockLessonRepository: newMockLessonRepository(vocabularyLesson())}
		svc := NewAudioService(&mockSynthesizer{}, &mockMediaStorage{}, lessons, zap.NewNop())

		_, err := svc.GenerateLessonAudio(context.Background(), "duala", 4)
		assert.ErrorIs(t, err, errVocabularyWrite)
	})
}

var errVocabularyWrite = errors.New("write failed")

// failingVocabularyRepo reads lessons but cannot store vocabulary
type failingVocabularyRepo struct {
	*mockLessonRepository
}

func (f *failingVocabularyRepo) UpdateVocabulary(ctx context.Context, id int, vocabulary []models.VocabularyItem) error {
	return errVocabularyWrite
}
