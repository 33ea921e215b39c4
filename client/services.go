package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vinayprograms/meshkit/errors"
	"github.com/vinayprograms/meshkit/tasks"
)

// createAck is the submission acknowledgement: the task handle only,
// not the finished task.
type createAck struct {
	ID string `json:"id"`
}

// service is the shared behavior of every endpoint family. A family
// contributes its resource path and payload shape; create/get/delete
// and polling are identical across families.
type service struct {
	client   *Client
	resource string
}

// create submits work and returns the opaque task handle.
func (s *service) create(ctx context.Context, payload interface{}) (string, error) {
	var ack createAck
	if err := s.client.do(ctx, http.MethodPost, "/"+s.resource, payload, &ack); err != nil {
		return "", err
	}
	s.client.logger.TaskCreated(s.resource, ack.ID)
	return ack.ID, nil
}

// Get fetches the current state of a task.
func (s *service) Get(ctx context.Context, id string) (*tasks.Task, error) {
	var task tasks.Task
	if err := s.client.do(ctx, http.MethodGet, "/"+s.resource+"/"+id, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task.
func (s *service) Delete(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, "/"+s.resource+"/"+id, nil, nil)
}

// Wait polls the task until it reaches a terminal status.
func (s *service) Wait(ctx context.Context, id string) (*tasks.Task, error) {
	start := time.Now()
	task, err := s.client.poller.Wait(ctx, s.Get, id)
	if err != nil {
		return nil, err
	}
	s.client.logger.PollDone(id, task.Status.String(), time.Since(start))
	return task, nil
}

// --- Text to 3D ---

// TextTo3DRequest shapes a model-generation submission.
type TextTo3DRequest struct {
	// Mode selects the generation stage: "preview" or "refine".
	Mode string `json:"mode"`

	// Prompt describes the model to generate. Required in preview mode.
	Prompt string `json:"prompt,omitempty"`

	// PreviewTaskID names the preview task to refine. Required in
	// refine mode.
	PreviewTaskID string `json:"preview_task_id,omitempty"`

	ArtStyle        string `json:"art_style,omitempty"`
	NegativePrompt  string `json:"negative_prompt,omitempty"`
	TargetPolycount int    `json:"target_polycount,omitempty"`
	Topology        string `json:"topology,omitempty"`
	Seed            int    `json:"seed,omitempty"`
}

func (r *TextTo3DRequest) validate() error {
	switch r.Mode {
	case "preview":
		if r.Prompt == "" {
			return errors.New(errors.ErrCodeBadRequest, "prompt is required in preview mode")
		}
	case "refine":
		if r.PreviewTaskID == "" {
			return errors.New(errors.ErrCodeBadRequest, "preview_task_id is required in refine mode")
		}
	default:
		return errors.Newf(errors.ErrCodeBadRequest, "unknown mode %q", r.Mode)
	}
	return nil
}

// TextTo3DService generates 3D models from text prompts.
type TextTo3DService struct {
	service
}

// Create submits a generation task and returns its handle.
func (s *TextTo3DService) Create(ctx context.Context, req TextTo3DRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	return s.create(ctx, &req)
}

// List returns a page of generation tasks.
func (s *TextTo3DService) List(ctx context.Context, pageNum, pageSize int) ([]*tasks.Task, error) {
	path := fmt.Sprintf("/%s?page_num=%d&page_size=%d", s.resource, pageNum, pageSize)
	var page []*tasks.Task
	if err := s.client.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page, nil
}

// --- Rigging ---

// RiggingRequest shapes a rigging submission. Exactly one of
// InputTaskID or ModelURL selects the source model.
type RiggingRequest struct {
	InputTaskID     string  `json:"input_task_id,omitempty"`
	ModelURL        string  `json:"model_url,omitempty"`
	CharacterHeight float64 `json:"character_height,omitempty"`
}

func (r *RiggingRequest) validate() error {
	if (r.InputTaskID == "") == (r.ModelURL == "") {
		return errors.New(errors.ErrCodeBadRequest, "exactly one of input_task_id or model_url is required")
	}
	return nil
}

// RiggingService adds skeletons to generated models.
type RiggingService struct {
	service
}

// Create submits a rigging task and returns its handle.
func (s *RiggingService) Create(ctx context.Context, req RiggingRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	return s.create(ctx, &req)
}

// --- Retexture ---

// RetextureRequest shapes a retexturing submission. One of
// TextStylePrompt or ImageStyleURL supplies the style.
type RetextureRequest struct {
	InputTaskID     string `json:"input_task_id,omitempty"`
	ModelURL        string `json:"model_url,omitempty"`
	TextStylePrompt string `json:"text_style_prompt,omitempty"`
	ImageStyleURL   string `json:"image_style_url,omitempty"`
	EnablePBR       bool   `json:"enable_pbr,omitempty"`
}

func (r *RetextureRequest) validate() error {
	if (r.InputTaskID == "") == (r.ModelURL == "") {
		return errors.New(errors.ErrCodeBadRequest, "exactly one of input_task_id or model_url is required")
	}
	if r.TextStylePrompt == "" && r.ImageStyleURL == "" {
		return errors.New(errors.ErrCodeBadRequest, "a text_style_prompt or image_style_url is required")
	}
	return nil
}

// RetextureService regenerates textures on existing models.
type RetextureService struct {
	service
}

// Create submits a retexture task and returns its handle.
func (s *RetextureService) Create(ctx context.Context, req RetextureRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	return s.create(ctx, &req)
}

// --- Animation ---

// AnimationRequest shapes an animation submission against a rigged
// model.
type AnimationRequest struct {
	InputTaskID string `json:"input_task_id,omitempty"`
	ModelURL    string `json:"model_url,omitempty"`

	// Action names the animation to apply, e.g. "walk" or "run".
	Action string `json:"action"`
}

func (r *AnimationRequest) validate() error {
	if (r.InputTaskID == "") == (r.ModelURL == "") {
		return errors.New(errors.ErrCodeBadRequest, "exactly one of input_task_id or model_url is required")
	}
	if r.Action == "" {
		return errors.New(errors.ErrCodeBadRequest, "action is required")
	}
	return nil
}

// AnimationService animates rigged models.
type AnimationService struct {
	service
}

// Create submits an animation task and returns its handle.
func (s *AnimationService) Create(ctx context.Context, req AnimationRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	return s.create(ctx, &req)
}

// --- Result manifest ---

// ModelManifest is the decoded success payload for model-producing
// tasks: download URLs keyed by format, plus optional texture maps.
type ModelManifest struct {
	ModelURLs    map[string]string `json:"model_urls"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	TextureURLs  []TextureSet      `json:"texture_urls,omitempty"`
}

// TextureSet groups the PBR maps for one material slot.
type TextureSet struct {
	BaseColor string `json:"base_color,omitempty"`
	Metallic  string `json:"metallic,omitempty"`
	Normal    string `json:"normal,omitempty"`
	Roughness string `json:"roughness,omitempty"`
}
