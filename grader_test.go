package topicquiz

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func sampleQuiz() *QuizSet {
	quiz := &QuizSet{ID: "quiz-1", Topic: "Capitals", CreatedAt: time.Now().UTC()}
	for i := 0; i < QuestionsPerQuiz; i++ {
		q := validQuestion()
		q.ID = i + 1
		q.Correct = i % OptionsPerQuestion
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz
}

func parseAnswers(t *testing.T, body string) Answers {
	t.Helper()
	var answers Answers
	if err := json.Unmarshal([]byte(body), &answers); err != nil {
		t.Fatalf("failed to parse answers %s: %v", body, err)
	}
	return answers
}

func TestGradeAllCorrect(t *testing.T) {
	quiz := sampleQuiz()
	summary := Grade(quiz, parseAnswers(t, `{"1":0,"2":1,"3":2,"4":3,"5":0}`))

	if summary.Score != 5 || summary.Total != 5 || summary.Percentage != 100 {
		t.Fatalf("summary = %d/%d (%v), want 5/5 (100)", summary.Score, summary.Total, summary.Percentage)
	}
	for i, r := range summary.Results {
		q := quiz.Questions[i]
		if !r.Correct || r.UserAnswer != q.Options[q.Correct] || r.Reasoning != q.Reasoning[q.Correct] {
			t.Fatalf("Results[%d] = %+v", i, r)
		}
	}
}

func TestGradePartial(t *testing.T) {
	quiz := sampleQuiz()
	// questions 1-3 right, 4 wrong, 5 unanswered
	summary := Grade(quiz, parseAnswers(t, `{"1":0,"2":1,"3":2,"4":0}`))

	if summary.Score != 3 || summary.Percentage != 60 {
		t.Fatalf("summary = %d/%d (%v), want 3/5 (60)", summary.Score, summary.Total, summary.Percentage)
	}

	wrong := summary.Results[3]
	if wrong.Correct || wrong.UserAnswer != quiz.Questions[3].Options[0] {
		t.Fatalf("Results[3] = %+v", wrong)
	}
	if wrong.CorrectAnswer != quiz.Questions[3].Options[3] {
		t.Fatalf("Results[3].CorrectAnswer = %q, want %q", wrong.CorrectAnswer, quiz.Questions[3].Options[3])
	}
	if wrong.Reasoning != quiz.Questions[3].Reasoning[0] {
		t.Fatalf("Results[3].Reasoning = %q, want the reasoning of the selected option", wrong.Reasoning)
	}

	missing := summary.Results[4]
	if missing.Correct || missing.UserAnswer != NoAnswer || missing.Reasoning != "" {
		t.Fatalf("Results[4] = %+v, want unanswered", missing)
	}
}

func TestGradeOutOfRangeAndMalformed(t *testing.T) {
	quiz := sampleQuiz()
	summary := Grade(quiz, parseAnswers(t, `{"1":9,"2":-1,"3":"two","4":null,"foo":1}`))

	if summary.Score != 0 || summary.Percentage != 0 {
		t.Fatalf("summary = %d/%d (%v), want 0/5 (0)", summary.Score, summary.Total, summary.Percentage)
	}
	for i, r := range summary.Results {
		if r.UserAnswer != NoAnswer {
			t.Fatalf("Results[%d].UserAnswer = %q, want %q", i, r.UserAnswer, NoAnswer)
		}
	}
}

func TestGradeEmptyAnswers(t *testing.T) {
	summary := Grade(sampleQuiz(), nil)
	if summary.Score != 0 || summary.Total != QuestionsPerQuiz || len(summary.Results) != QuestionsPerQuiz {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{0, 5, 0},
		{3, 5, 60},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{5, 5, 100},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := percentage(tt.score, tt.total); got != tt.want {
			t.Fatalf("percentage(%d, %d) = %v, want %v", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestGradeQuizNoActiveQuiz(t *testing.T) {
	grader := NewQuizGrader(NewMemoryStore(time.Hour))
	_, err := grader.GradeQuiz(context.Background(), "nobody", Answers{"1": Answer(0)})
	if !errors.Is(err, ErrNoActiveQuiz) {
		t.Fatalf("error = %v, want ErrNoActiveQuiz", err)
	}
}

func TestGradeQuizIsRepeatable(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if err := store.Put(context.Background(), "caller-1", sampleQuiz()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	grader := NewQuizGrader(store)
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}
	grader.SetRecorder(recorder)
	grader.SetPublisher(publisher)

	answers := parseAnswers(t, `{"1":0,"2":3}`)
	first, err := grader.GradeQuiz(context.Background(), "caller-1", answers)
	if err != nil {
		t.Fatalf("GradeQuiz failed: %v", err)
	}
	second, err := grader.GradeQuiz(context.Background(), "caller-1", answers)
	if err != nil {
		t.Fatalf("GradeQuiz failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grading is not repeatable: %+v != %+v", first, second)
	}
	if first.Score != 1 || first.Percentage != 20 {
		t.Fatalf("summary = %d/%d (%v), want 1/5 (20)", first.Score, first.Total, first.Percentage)
	}

	if len(recorder.submissions) != 2 || recorder.submissions[0].QuizID != "quiz-1" {
		t.Fatalf("submissions = %+v", recorder.submissions)
	}
	if len(publisher.events) != 2 || publisher.events[0] != EventQuizGraded {
		t.Fatalf("events = %v", publisher.events)
	}
}
