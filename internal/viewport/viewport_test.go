package viewport

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		width int
		want  Mode
	}{
		{0, ModeMobile},
		{320, ModeMobile},
		{767, ModeMobile},
		{768, ModeDesktop},
		{1024, ModeDesktop},
		{2560, ModeDesktop},
	}

	for _, tt := range tests {
		if got := Classify(tt.width); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.width, got, tt.want)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	for i := 0; i < 5; i++ {
		if got := Classify(767); got != ModeMobile {
			t.Fatalf("call %d: Classify(767) = %s", i, got)
		}
	}
}

func TestClassifierResizeHasNoHysteresis(t *testing.T) {
	c := NewClassifier("")
	if c.Mode() != ModeDesktop {
		t.Fatalf("default mode = %s", c.Mode())
	}
	if _, measured := c.Width(); measured {
		t.Fatal("no width should be recorded before Init")
	}

	if got := c.Init(1024); got != ModeDesktop {
		t.Fatalf("init(1024) = %s", got)
	}

	steps := []struct {
		width   int
		changed bool
	}{
		{500, true},
		{1024, true},
		{1024, false},
		{767, true},
		{768, true},
	}
	for _, step := range steps {
		changed := c.Resize(step.width)
		if changed != step.changed {
			t.Errorf("Resize(%d) changed = %v, want %v", step.width, changed, step.changed)
		}
		if c.Mode() != Classify(step.width) {
			t.Errorf("after Resize(%d) mode = %s, want %s", step.width, c.Mode(), Classify(step.width))
		}
		if w, _ := c.Width(); w != step.width {
			t.Errorf("width = %d, want %d", w, step.width)
		}
	}
}

func TestInitOverridesHint(t *testing.T) {
	c := NewClassifier(ModeMobile)
	if got := c.Init(1280); got != ModeDesktop {
		t.Fatalf("measured width must win over hint, got %s", got)
	}
}

func TestLayoutFor(t *testing.T) {
	if got := LayoutFor(ModeMobile).Columns; got != 1 {
		t.Fatalf("mobile columns = %d", got)
	}
	if got := LayoutFor(ModeDesktop).Columns; got != 3 {
		t.Fatalf("desktop columns = %d", got)
	}
}

func TestHintFromUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Mode
	}{
		{"empty", "", ModeDesktop},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", ModeMobile},
		{"android phone", "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", ModeMobile},
		{"desktop chrome", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", ModeDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HintFromUserAgent(tt.ua); got != tt.want {
				t.Fatalf("HintFromUserAgent = %s, want %s", got, tt.want)
			}
		})
	}
}
