package gemini

import "studyroom/internal/ai"

// Register Gemini provider on package import
func init() {
	ai.RegisterProvider("gemini", func() (ai.Provider, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config)
	})
}
