package message

// MediaType is a CoAP Content-Format identifier (RFC7252 §12.3, IANA
// "CoAP Content-Formats" registry).
type MediaType uint32

// Registered content formats in common use: the teacher's table
// (text/plain, link-format, xml, octet-stream, exi, json) plus CBOR,
// which the teacher's six-entry table predates.
const (
	TextPlain        MediaType = 0
	ApplicationLinkFormat MediaType = 40
	ApplicationXML   MediaType = 41
	ApplicationOctetStream MediaType = 42
	ApplicationEXI   MediaType = 47
	ApplicationJSON  MediaType = 50
	ApplicationCBOR  MediaType = 60
)

var mediaTypeNames = map[MediaType]string{
	TextPlain:              "text/plain; charset=utf-8",
	ApplicationLinkFormat:  "application/link-format",
	ApplicationXML:         "application/xml",
	ApplicationOctetStream: "application/octet-stream",
	ApplicationEXI:         "application/exi",
	ApplicationJSON:        "application/json",
	ApplicationCBOR:        "application/cbor",
}

func (mt MediaType) String() string {
	if name, ok := mediaTypeNames[mt]; ok {
		return name
	}
	return "application/octet-stream"
}
