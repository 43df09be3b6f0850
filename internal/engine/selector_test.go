package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"screening-bot/internal/config"
	"screening-bot/internal/session"
)

func selectorConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Skills = config.SkillSet{
		Order: []string{"first", "second", "third"},
		Items: map[string]config.Skill{
			"first":  {Name: "First", Weight: 3},
			"second": {Name: "Second", Weight: 5},
			"third":  {Name: "Third", Weight: 3},
		},
	}
	return cfg
}

func TestSelectNextSkillPrefersHighestWeight(t *testing.T) {
	cfg := selectorConfig()
	sess := session.New("s1")

	assert.Equal(t, "second", SelectNextSkill(cfg, sess))
}

func TestSelectNextSkillBreaksTiesByConfigOrder(t *testing.T) {
	cfg := selectorConfig()
	sess := session.New("s1")
	sess.RecordSkillResponse("second", "q", "a")

	// first и third равны по весу: выигрывает раньше объявленная
	assert.Equal(t, "first", SelectNextSkill(cfg, sess))
}

func TestSelectNextSkillFewestQuestionsWhenAllDiscussed(t *testing.T) {
	cfg := selectorConfig()
	sess := session.New("s1")
	sess.RecordSkillResponse("first", "q", "a")
	sess.RecordSkillResponse("first", "q", "a")
	sess.RecordSkillResponse("second", "q", "a")
	sess.RecordSkillResponse("third", "q", "a")
	sess.RecordSkillResponse("third", "q", "a")

	assert.Equal(t, "second", SelectNextSkill(cfg, sess))
}

func TestSelectNextSkillDeterministic(t *testing.T) {
	cfg := selectorConfig()
	sess := session.New("s1")
	sess.RecordSkillResponse("second", "q", "a")

	first := SelectNextSkill(cfg, sess)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, SelectNextSkill(cfg, sess))
	}
}

func TestSelectNextSkillUnknownWeightDefaultsToOne(t *testing.T) {
	cfg := selectorConfig()
	// Вес вне шкалы считается единицей и не перебивает корректные веса
	cfg.Skills.Items["second"] = config.Skill{Name: "Second", Weight: 99}
	sess := session.New("s1")

	assert.Equal(t, "first", SelectNextSkill(cfg, sess))
}
