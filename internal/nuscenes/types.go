package nuscenes

// Scene is one recorded drive, addressed by its position in the scene table.
type Scene struct {
	Token            string `json:"token"`
	LogToken         string `json:"log_token"`
	NbrSamples       int    `json:"nbr_samples"`
	FirstSampleToken string `json:"first_sample_token"`
	LastSampleToken  string `json:"last_sample_token"`
	Name             string `json:"name"`
	Description      string `json:"description"`
}

// ChannelData pairs a sensor channel with the key-frame sample_data token
// captured on it.
type ChannelData struct {
	Channel string
	Token   string
}

// Sample is one annotated key frame. Prev and Next are empty at the ends of
// a scene.
type Sample struct {
	Token      string `json:"token"`
	Timestamp  int64  `json:"timestamp"`
	SceneToken string `json:"scene_token"`
	Prev       string `json:"prev"`
	Next       string `json:"next"`

	// Data lists key-frame sample_data in table order.
	Data []ChannelData `json:"-"`
	Anns []string      `json:"-"`
}

// DataToken returns the sample_data token recorded for channel.
func (s *Sample) DataToken(channel string) (string, bool) {
	for _, d := range s.Data {
		if d.Channel == channel {
			return d.Token, true
		}
	}
	return "", false
}

// SampleData is one sensor capture. Channel and SensorModality are filled in
// from the calibrated_sensor and sensor tables at load time.
type SampleData struct {
	Token                 string `json:"token"`
	SampleToken           string `json:"sample_token"`
	EgoPoseToken          string `json:"ego_pose_token"`
	CalibratedSensorToken string `json:"calibrated_sensor_token"`
	Timestamp             int64  `json:"timestamp"`
	Fileformat            string `json:"fileformat"`
	IsKeyFrame            bool   `json:"is_key_frame"`
	Height                int    `json:"height"`
	Width                 int    `json:"width"`
	Filename              string `json:"filename"`
	Prev                  string `json:"prev"`
	Next                  string `json:"next"`

	Channel        string `json:"-"`
	SensorModality string `json:"-"`
}

// Sensor modalities as they appear in the sensor table.
const (
	ModalityCamera = "camera"
	ModalityLidar  = "lidar"
	ModalityRadar  = "radar"
)

// Sensor names a physical sensor.
type Sensor struct {
	Token    string `json:"token"`
	Channel  string `json:"channel"`
	Modality string `json:"modality"`
}

// CalibratedSensor places a sensor in the ego frame. Rotation is w, x, y, z.
type CalibratedSensor struct {
	Token           string      `json:"token"`
	SensorToken     string      `json:"sensor_token"`
	Translation     [3]float64  `json:"translation"`
	Rotation        [4]float64  `json:"rotation"`
	CameraIntrinsic [][]float64 `json:"camera_intrinsic"`
}

// EgoPose places the vehicle in the global frame at one timestamp.
type EgoPose struct {
	Token       string     `json:"token"`
	Timestamp   int64      `json:"timestamp"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
}

// SampleAnnotation is a 3D box in the global frame. Size is width, length, height.
type SampleAnnotation struct {
	Token           string     `json:"token"`
	SampleToken     string     `json:"sample_token"`
	InstanceToken   string     `json:"instance_token"`
	VisibilityToken string     `json:"visibility_token"`
	AttributeTokens []string   `json:"attribute_tokens"`
	Translation     [3]float64 `json:"translation"`
	Size            [3]float64 `json:"size"`
	Rotation        [4]float64 `json:"rotation"`
	Prev            string     `json:"prev"`
	Next            string     `json:"next"`
	NumLidarPts     int        `json:"num_lidar_pts"`
	NumRadarPts     int        `json:"num_radar_pts"`
}

// Instance is one tracked object across a scene.
type Instance struct {
	Token                string `json:"token"`
	CategoryToken        string `json:"category_token"`
	NbrAnnotations       int    `json:"nbr_annotations"`
	FirstAnnotationToken string `json:"first_annotation_token"`
	LastAnnotationToken  string `json:"last_annotation_token"`
}

// Category is an object class. Index is the lidarseg label value.
type Category struct {
	Token       string `json:"token"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Index       int    `json:"index"`
}

// Lidarseg points at the per-point label file of one lidar sample_data.
type Lidarseg struct {
	Token           string `json:"token"`
	SampleDataToken string `json:"sample_data_token"`
	Filename        string `json:"filename"`
}
