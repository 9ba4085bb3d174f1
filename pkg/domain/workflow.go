package domain

// WorkflowState はバッチ全体のフェーズで、どの一括操作が可能かを決めます。
type WorkflowState int

const (
	WorkflowIdle WorkflowState = iota
	WorkflowLoadingInitialIdeas
	WorkflowIdeasLoaded
	WorkflowGeneratingAll
	WorkflowAllGenerated
)

var workflowNames = map[WorkflowState]string{
	WorkflowIdle:                "idle",
	WorkflowLoadingInitialIdeas: "loading_initial_ideas",
	WorkflowIdeasLoaded:         "ideas_loaded",
	WorkflowGeneratingAll:       "generating_all",
	WorkflowAllGenerated:        "all_generated",
}

func (w WorkflowState) String() string {
	if name, ok := workflowNames[w]; ok {
		return name
	}
	return "unknown"
}

func (w WorkflowState) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WorkflowState) UnmarshalText(b []byte) error {
	for k, v := range workflowNames {
		if v == string(b) {
			*w = k
			return nil
		}
	}
	*w = WorkflowIdle
	return nil
}

// IsBatchBusy はバッチ単位の処理（初期案の取得・一括生成）が進行中かを返します。
func (w WorkflowState) IsBatchBusy() bool {
	return w == WorkflowLoadingInitialIdeas || w == WorkflowGeneratingAll
}
