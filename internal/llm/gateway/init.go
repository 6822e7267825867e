package gateway

import "codinground/internal/llm"

// Register the completion gateway on package import
func init() {
	llm.RegisterProvider("gateway", func() (llm.Provider, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config, nil), nil
	})
}
