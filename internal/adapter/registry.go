package adapter

import (
	"fmt"
	"net/http"

	"github.com/amishk599/hiddenjobs/internal/config"
	"github.com/amishk599/hiddenjobs/internal/model"
)

// Deps are the shared collaborators handed to every adapter.
type Deps struct {
	Client    *http.Client
	Pages     PageFetcher // used for render: http
	Browser   PageFetcher // used for render: browser
	UserAgent string
}

// New builds the adapter for a configured source.
func New(src config.SourceConfig, deps Deps) (model.SourceAdapter, error) {
	pages := deps.Pages
	if src.Render == config.RenderBrowser {
		if deps.Browser == nil {
			return nil, fmt.Errorf("source %s: browser rendering not available", src.Name)
		}
		pages = deps.Browser
	}

	switch src.Type {
	case config.SourceHN:
		return NewHNAdapter(src.Name, src.URL, pages), nil
	case config.SourceYC:
		return NewYCAdapter(src.Name, src.URL, pages), nil
	case config.SourceWellfound:
		return NewWellfoundAdapter(src.Name, src.URL, pages), nil
	case config.SourceRemoteOK:
		return NewRemoteOKAdapter(src.Name, src.URL, deps.Client, deps.UserAgent), nil
	case config.SourceWeWorkRemotely:
		return NewWeWorkRemotelyAdapter(src.Name, src.URL, pages), nil
	case config.SourceA16Z:
		return NewA16ZAdapter(src.Name, src.URL, pages), nil
	case config.SourceWorkAtAStartup:
		return NewWorkAtAStartupAdapter(src.Name, src.URL, pages), nil
	case config.SourceGreenhouse:
		return NewGreenhouseAdapter(src.Name, src.BoardToken, src.Company, deps.Client, deps.UserAgent), nil
	case config.SourceLever:
		return NewLeverAdapter(src.Name, src.BoardToken, src.Company, deps.Client, deps.UserAgent), nil
	default:
		return nil, fmt.Errorf("source %s: unknown type %q", src.Name, src.Type)
	}
}
