package asf

// Top-level objects.
var (
	HeaderObject                    = MustParseGUID("75B22630-668E-11CF-A6D9-00AA0062CE6C")
	DataObject                      = MustParseGUID("75B22636-668E-11CF-A6D9-00AA0062CE6C")
	SimpleIndexObject               = MustParseGUID("33000890-E5B1-11CF-89F4-00A0C90349CB")
	IndexObject                     = MustParseGUID("D6E229D3-35DA-11D1-9034-00A0C90349BE")
	MediaObjectIndexObject          = MustParseGUID("FEB103F8-12AD-4C64-840F-2A1D2F7AD48C")
	TimecodeIndexObject             = MustParseGUID("3CB73FD0-0C4A-4803-953D-EDF7B6228F0C")
	FilePropertiesObject            = MustParseGUID("8CABDCA1-A947-11CF-8EE4-00C00C205365")
	StreamPropertiesObject          = MustParseGUID("B7DC0791-A9B7-11CF-8EE6-00C00C205365")
	HeaderExtensionObject           = MustParseGUID("5FBF03B5-A92E-11CF-8EE3-00C00C205365")
	CodecListObject                 = MustParseGUID("86D15240-311D-11D0-A3A4-00A0C90348F6")
	ScriptCommandObject             = MustParseGUID("1EFB1A30-0B62-11D0-A39B-00A0C90348F6")
	MarkerObject                    = MustParseGUID("F487CD01-A951-11CF-8EE6-00C00C205365")
	BitrateMutualExclusionObject    = MustParseGUID("D6E229DC-35DA-11D1-9034-00A0C90349BE")
	ErrorCorrectionObject           = MustParseGUID("75B22635-668E-11CF-A6D9-00AA0062CE6C")
	ContentDescriptionObject        = MustParseGUID("75B22633-668E-11CF-A6D9-00AA0062CE6C")
	ExtendedContentDescriptionObj   = MustParseGUID("D2D0A440-E307-11D2-97F0-00A0C95EA850")
	ContentBrandingObject           = MustParseGUID("2211B3FA-BD23-11D2-B4B7-00A0C955FC6E")
	StreamBitratePropertiesObject   = MustParseGUID("7BF875CE-468D-11D1-8D82-006097C9A2B2")
	ContentEncryptionObject         = MustParseGUID("2211B3FB-BD23-11D2-B4B7-00A0C955FC6E")
	ExtendedContentEncryptionObject = MustParseGUID("298AE614-2622-4C17-B935-DAE07EE9289C")
	DigitalSignatureObject          = MustParseGUID("2211B3FC-BD23-11D2-B4B7-00A0C955FC6E")
	PaddingObject                   = MustParseGUID("1806D474-CADF-4509-A4BA-9AABCB96AAE8")
)

// Header extension objects.
var (
	ExtendedStreamPropertiesObject        = MustParseGUID("14E6A5CB-C672-4332-8399-A96952065B5A")
	AdvancedMutualExclusionObject         = MustParseGUID("A08649CF-4775-4670-8A16-6E35357566CD")
	GroupMutualExclusionObject            = MustParseGUID("D1465A40-5A79-4338-B71B-E36B8FD6C249")
	StreamPrioritizationObject            = MustParseGUID("D4FED15B-88D3-454F-81F0-ED5C45999E24")
	BandwidthSharingObject                = MustParseGUID("A69609E6-517B-11D2-B6AF-00C04FD908E9")
	LanguageListObject                    = MustParseGUID("7C4346A9-EFE0-4BFC-B229-393EDE415C85")
	MetadataObject                        = MustParseGUID("C5F8CBEA-5BAF-4877-8467-AA8C44FA4CCA")
	MetadataLibraryObject                 = MustParseGUID("44231C94-9498-49D1-A141-1D134E457054")
	IndexParametersObject                 = MustParseGUID("D6E229DF-35DA-11D1-9034-00A0C90349BE")
	MediaObjectIndexParametersObject      = MustParseGUID("6B203BAD-3F11-48E4-ACA8-D7613DE2CFA7")
	TimecodeIndexParametersObject         = MustParseGUID("F55E496D-9797-4B5D-8C8B-604DFE9BFB24")
	CompatibilityObject                   = MustParseGUID("26F18B5D-4584-47EC-9F5F-0E651F0452C9")
	AdvancedContentEncryptionObject       = MustParseGUID("43058533-6981-49E6-9B74-AD12CB86D58C")
	IndexParametersPlaceholderObject      = MustParseGUID("D9AADE20-7C17-4F9C-BC28-8555DD98E2A2")
	ContentEncryptionSystemNetworkDevices = MustParseGUID("7A079BB6-DAA4-4E12-A5CA-91D38DC11A8D")
)

// Stream types.
var (
	AudioMedia             = MustParseGUID("F8699E40-5B4D-11CF-A8FD-00805F5C442B")
	VideoMedia             = MustParseGUID("BC19EFC0-5B4D-11CF-A8FD-00805F5C442B")
	CommandMedia           = MustParseGUID("59DACFC0-59E6-11D0-A3AC-00A0C90348F6")
	JFIFMedia              = MustParseGUID("B61BE100-5B4E-11CF-A8FD-00805F5C442B")
	DegradableJPEGMedia    = MustParseGUID("35907DE0-E415-11CF-A917-00805F5C442B")
	FileTransferMedia      = MustParseGUID("91BD222C-F21C-497A-8B6D-5AA86BFC0185")
	BinaryMedia            = MustParseGUID("3AFB65E2-47EF-40F2-AC2C-70A90D71D343")
	ExtendedStreamAudio    = MustParseGUID("31178C9D-03E1-4528-B582-3DF9DB22F503")
	WebStreamMediaSubtype  = MustParseGUID("776257D4-C627-41CB-8F81-7AC7FF1C40CC")
	WebStreamFormat        = MustParseGUID("DA1E6B13-8359-4050-B398-388E965BF00C")
	NoErrorCorrection      = MustParseGUID("20FB5700-5B55-11CF-A8FD-00805F5C442B")
	AudioSpread            = MustParseGUID("BFC3CD50-618F-11CF-8BB2-00AA00B4E220")
	Reserved1              = MustParseGUID("ABD3D211-A9BA-11CF-8EE6-00C00C205365")
	Reserved2              = MustParseGUID("86D15241-311D-11D0-A3A4-00A0C90348F6")
	Reserved3              = MustParseGUID("4B1ACBE3-100B-11D0-A39B-00A0C90348F6")
	Reserved4              = MustParseGUID("4CFEDB20-75F6-11CF-9C0F-00A0C90349CB")
	MutexLanguage          = MustParseGUID("D6E22A00-35DA-11D1-9034-00A0C90349BE")
	MutexBitrate           = MustParseGUID("D6E22A01-35DA-11D1-9034-00A0C90349BE")
	MutexUnknown           = MustParseGUID("D6E22A02-35DA-11D1-9034-00A0C90349BE")
	BandwidthSharingExcl   = MustParseGUID("AF6060AA-5197-11D2-B6AF-00C04FD908E9")
	BandwidthSharingPartly = MustParseGUID("AF6060AB-5197-11D2-B6AF-00C04FD908E9")
)

// Payload extension systems.
var (
	PayloadExtensionTimecode         = MustParseGUID("399595EC-8667-4E2D-8FDB-98814CE76C1E")
	PayloadExtensionFileName         = MustParseGUID("E165EC0E-19ED-45D7-B4A7-25CBD1E28E9B")
	PayloadExtensionContentType      = MustParseGUID("D590DC20-07BC-436C-9CF7-F3BBFBF1A4DC")
	PayloadExtensionPixelAspectRatio = MustParseGUID("1B1EE554-F9EA-4BC8-821A-376B74E4C4B8")
	PayloadExtensionSampleDuration   = MustParseGUID("C6BD9450-867F-4907-83A3-C77921B733AD")
	PayloadExtensionEncryptionID     = MustParseGUID("6698B84E-0AFA-4330-AEB2-1C0A98D7A44D")
	PayloadExtensionDVRTiming        = MustParseGUID("FD3CC02A-06DB-4CFA-801C-7212D38745E4")
	PayloadExtensionDVRVideoFrame    = MustParseGUID("DD6432CC-E229-40DB-80F6-D26328D2761F")
	PayloadExtensionDegradableJPEG   = MustParseGUID("00E1AF06-7BEC-11D1-A582-00C04FC29CFB")
)

type objectType struct {
	name string
	new  func() object // nil for identifiers that are not objects.
}

func factory[T any, P interface {
	*T
	object
}]() func() object {
	return func() object { return P(new(T)) }
}

var registry = map[GUID]objectType{
	HeaderObject:                     {"Header Object", factory[Header]()},
	DataObject:                       {"Data Object", factory[Data]()},
	SimpleIndexObject:                {"Simple Index Object", factory[SimpleIndex]()},
	IndexObject:                      {"Index Object", factory[Index]()},
	MediaObjectIndexObject:           {"Media Object Index Object", nil},
	TimecodeIndexObject:              {"Timecode Index Object", nil},
	FilePropertiesObject:             {"File Properties Object", factory[FileProperties]()},
	StreamPropertiesObject:           {"Stream Properties Object", factory[StreamProperties]()},
	HeaderExtensionObject:            {"Header Extension Object", factory[HeaderExtension]()},
	CodecListObject:                  {"Codec List Object", factory[CodecList]()},
	ScriptCommandObject:              {"Script Command Object", factory[ScriptCommand]()},
	MarkerObject:                     {"Marker Object", nil},
	BitrateMutualExclusionObject:     {"Bitrate Mutual Exclusion Object", factory[BitrateMutualExclusion]()},
	ErrorCorrectionObject:            {"Error Correction Object", nil},
	ContentDescriptionObject:         {"Content Description Object", factory[ContentDescription]()},
	ExtendedContentDescriptionObj:    {"Extended Content Description Object", factory[ExtendedContentDescription]()},
	ContentBrandingObject:            {"Content Branding Object", nil},
	StreamBitratePropertiesObject:    {"Stream Bitrate Properties Object", factory[StreamBitrateProperties]()},
	ContentEncryptionObject:          {"Content Encryption Object", nil},
	ExtendedContentEncryptionObject:  {"Extended Content Encryption Object", nil},
	DigitalSignatureObject:           {"Digital Signature Object", nil},
	PaddingObject:                    {"Padding Object", factory[Padding]()},
	ExtendedStreamPropertiesObject:   {"Extended Stream Properties Object", factory[ExtendedStreamProperties]()},
	AdvancedMutualExclusionObject:    {"Advanced Mutual Exclusion Object", nil},
	GroupMutualExclusionObject:       {"Group Mutual Exclusion Object", nil},
	StreamPrioritizationObject:       {"Stream Prioritization Object", factory[StreamPrioritization]()},
	BandwidthSharingObject:           {"Bandwidth Sharing Object", nil},
	LanguageListObject:               {"Language List Object", factory[LanguageList]()},
	MetadataObject:                   {"Metadata Object", factory[Metadata]()},
	MetadataLibraryObject:            {"Metadata Library Object", nil},
	IndexParametersObject:            {"Index Parameters Object", factory[IndexParameters]()},
	MediaObjectIndexParametersObject: {"Media Object Index Parameters Object", nil},
	TimecodeIndexParametersObject:    {"Timecode Index Parameters Object", factory[TimecodeIndexParameters]()},
	CompatibilityObject:              {"Compatibility Object", factory[Compatibility]()},
	AdvancedContentEncryptionObject:  {"Advanced Content Encryption Object", nil},
	IndexParametersPlaceholderObject: {"Index Parameters Placeholder Object", factory[IndexParametersPlaceholder]()},

	ContentEncryptionSystemNetworkDevices: {"Content Encryption System Windows Media DRM Network Devices", nil},

	AudioMedia:             {"Audio Media", nil},
	VideoMedia:             {"Video Media", nil},
	CommandMedia:           {"Command Media", nil},
	JFIFMedia:              {"JFIF Media", nil},
	DegradableJPEGMedia:    {"Degradable JPEG Media", nil},
	FileTransferMedia:      {"File Transfer Media", nil},
	BinaryMedia:            {"Binary Media", nil},
	ExtendedStreamAudio:    {"Extended Stream Type Audio", nil},
	WebStreamMediaSubtype:  {"Web Stream Media Subtype", nil},
	WebStreamFormat:        {"Web Stream Format", nil},
	NoErrorCorrection:      {"No Error Correction", nil},
	AudioSpread:            {"Audio Spread", nil},
	Reserved1:              {"Reserved 1", nil},
	Reserved2:              {"Reserved 2", nil},
	Reserved3:              {"Reserved 3", nil},
	Reserved4:              {"Reserved 4", nil},
	MutexLanguage:          {"Mutex Language", nil},
	MutexBitrate:           {"Mutex Bitrate", nil},
	MutexUnknown:           {"Mutex Unknown", nil},
	BandwidthSharingExcl:   {"Bandwidth Sharing Exclusive", nil},
	BandwidthSharingPartly: {"Bandwidth Sharing Partial", nil},

	PayloadExtensionTimecode:         {"Payload Extension System Timecode", nil},
	PayloadExtensionFileName:         {"Payload Extension System File Name", nil},
	PayloadExtensionContentType:      {"Payload Extension System Content Type", nil},
	PayloadExtensionPixelAspectRatio: {"Payload Extension System Pixel Aspect Ratio", nil},
	PayloadExtensionSampleDuration:   {"Payload Extension System Sample Duration", nil},
	PayloadExtensionEncryptionID:     {"Payload Extension System Encryption Sample ID", nil},
	PayloadExtensionDVRTiming:        {"Payload Extension DVR-MS Timing Rep Data", nil},
	PayloadExtensionDVRVideoFrame:    {"Payload Extension DVR-MS Video Frame Rep Data", nil},
	PayloadExtensionDegradableJPEG:   {"Payload Extension System Degradable JPEG", nil},
}

// Name returns the human readable name of an identifier or "Unknown".
func Name(g GUID) string {
	if t, exist := registry[g]; exist {
		return t.name
	}
	return "Unknown"
}

// newObject returns an empty variant for the identifier. Identifiers
// without a dedicated variant are passed through as Unknown.
func newObject(g GUID) object {
	if t, exist := registry[g]; exist && t.new != nil {
		return t.new()
	}
	return &Unknown{}
}
