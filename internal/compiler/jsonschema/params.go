package jsonschema

import (
	"fmt"

	"github.com/conduit-lang/modelschema/internal/compiler/rules"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// SchemaVersion selects the JSON Schema dialect of the output
type SchemaVersion string

const (
	Version202012    SchemaVersion = "2020-12"
	Version201909    SchemaVersion = "2019-09"
	VersionDraft07   SchemaVersion = "draft-07"
	VersionOpenAPI30 SchemaVersion = "openapi30"
)

// URI returns the $schema value, empty for OpenAPI
func (v SchemaVersion) URI() string {
	switch v {
	case Version201909:
		return "https://json-schema.org/draft/2019-09/schema"
	case VersionDraft07:
		return "http://json-schema.org/draft-07/schema#"
	case VersionOpenAPI30:
		return ""
	default:
		return "https://json-schema.org/draft/2020-12/schema"
	}
}

// DefsKeyword returns the keyword holding definitions
func (v SchemaVersion) DefsKeyword() string {
	switch v {
	case VersionDraft07, VersionOpenAPI30:
		return "definitions"
	default:
		return "$defs"
	}
}

// SupportsAnchors reports whether $anchor is available
func (v SchemaVersion) SupportsAnchors() bool {
	return v == Version202012 || v == Version201909
}

// NullAsType reports whether null is encoded as a JSON type rather than nullable:true
func (v SchemaVersion) NullAsType() bool {
	return v != VersionOpenAPI30
}

// Valid reports whether v is a known version
func (v SchemaVersion) Valid() bool {
	switch v {
	case Version202012, Version201909, VersionDraft07, VersionOpenAPI30:
		return true
	}
	return false
}

// RefProfile is a by-reference encoding of identity-bearing values
type RefProfile string

const (
	// RefAsKey encodes a reference as the plain identifier of the target
	RefAsKey RefProfile = "rel-as-key"
	// RefAsURI encodes a reference as URI
	RefAsURI RefProfile = "rel-as-uri"
	// RefAsCollectionKey encodes a reference as collection id plus feature id
	RefAsCollectionKey RefProfile = "rel-as-collection-key"
)

// Inline/by-reference choices for identity-bearing value types
const (
	Inline              = "inline"
	ByReference         = "byReference"
	InlineOrByReference = "inlineOrByReference"
)

// Params are the target parameters of a compilation run
type Params struct {
	SchemaVersion                   SchemaVersion `mapstructure:"schemaVersion" yaml:"schemaVersion" json:"schemaVersion,omitempty" jsonschema:"enum=2020-12,enum=2019-09,enum=draft-07,enum=openapi30"`
	BaseURI                         string        `mapstructure:"baseUri" yaml:"baseUri,omitempty" json:"baseUri,omitempty"`
	EntityTypeMemberName            string        `mapstructure:"entityTypeMemberName" yaml:"entityTypeMemberName" json:"entityTypeMemberName,omitempty"`
	EntityTypeMemberPath            string        `mapstructure:"entityTypeMemberPath" yaml:"entityTypeMemberPath,omitempty" json:"entityTypeMemberPath,omitempty"`
	EntityTypeMemberRequired        bool          `mapstructure:"entityTypeMemberRequired" yaml:"entityTypeMemberRequired" json:"entityTypeMemberRequired,omitempty"`
	ObjectIdentifierName            string        `mapstructure:"objectIdentifierName" yaml:"objectIdentifierName" json:"objectIdentifierName,omitempty"`
	ObjectIdentifierType            []string      `mapstructure:"objectIdentifierType" yaml:"objectIdentifierType" json:"objectIdentifierType,omitempty"`
	ObjectIdentifierFormat          string        `mapstructure:"objectIdentifierFormat" yaml:"objectIdentifierFormat,omitempty" json:"objectIdentifierFormat,omitempty"`
	ObjectIdentifierRequired        bool          `mapstructure:"objectIdentifierRequired" yaml:"objectIdentifierRequired" json:"objectIdentifierRequired,omitempty"`
	InlineOrByReferenceDefault      string        `mapstructure:"inlineOrByReferenceDefault" yaml:"inlineOrByReferenceDefault" json:"inlineOrByReferenceDefault,omitempty" jsonschema:"enum=inline,enum=byReference,enum=inlineOrByReference"`
	ByReferenceJSONSchemaDefinition string        `mapstructure:"byReferenceJsonSchemaDefinition" yaml:"byReferenceJsonSchemaDefinition,omitempty" json:"byReferenceJsonSchemaDefinition,omitempty"`
	FeatureRefProfiles              []RefProfile  `mapstructure:"featureRefProfiles" yaml:"featureRefProfiles,omitempty" json:"featureRefProfiles,omitempty"`
	FeatureCollectionIDTemplate     string        `mapstructure:"featureCollectionIdTemplate" yaml:"featureCollectionIdTemplate" json:"featureCollectionIdTemplate,omitempty"`
	LinkObjectURI                   string        `mapstructure:"linkObjectUri" yaml:"linkObjectUri,omitempty" json:"linkObjectUri,omitempty"`
	GenericGeometryURI              string        `mapstructure:"genericGeometryUri" yaml:"genericGeometryUri,omitempty" json:"genericGeometryUri,omitempty"`
	UseAnchorsInLinksToClasses      bool          `mapstructure:"useAnchorsInLinksToClasses" yaml:"useAnchorsInLinksToClasses" json:"useAnchorsInLinksToClasses,omitempty"`
	IgnoreMapEntriesForSchemaTypes  bool          `mapstructure:"ignoreMapEntriesForSchemaTypes" yaml:"ignoreMapEntriesForSchemaTypes" json:"ignoreMapEntriesForSchemaTypes,omitempty"`
	DefaultEncodingRule             string        `mapstructure:"defaultEncodingRule" yaml:"defaultEncodingRule" json:"defaultEncodingRule,omitempty"`
	PrimaryGeometryMemberName       string        `mapstructure:"primaryGeometryMemberName" yaml:"primaryGeometryMemberName" json:"primaryGeometryMemberName,omitempty"`
	PrimaryPlaceMemberName          string        `mapstructure:"primaryPlaceMemberName" yaml:"primaryPlaceMemberName" json:"primaryPlaceMemberName,omitempty"`
	PrimaryTimeMemberName           string        `mapstructure:"primaryTimeMemberName" yaml:"primaryTimeMemberName" json:"primaryTimeMemberName,omitempty"`
	NestedPropertiesMemberName      string        `mapstructure:"nestedPropertiesMemberName" yaml:"nestedPropertiesMemberName" json:"nestedPropertiesMemberName,omitempty"`
}

// DefaultParams returns the parameters used when nothing is configured
func DefaultParams() Params {
	return Params{
		SchemaVersion:               Version202012,
		EntityTypeMemberName:        "entityType",
		ObjectIdentifierName:        "id",
		ObjectIdentifierType:        []string{schema.TypeString},
		InlineOrByReferenceDefault:  ByReference,
		FeatureRefProfiles:          []RefProfile{RefAsURI},
		FeatureCollectionIDTemplate: "{{featureType}}",
		GenericGeometryURI:          "https://geojson.org/schema/Geometry.json",
		DefaultEncodingRule:         rules.EncodingDefault,
		PrimaryGeometryMemberName:   "geometry",
		PrimaryPlaceMemberName:      "place",
		PrimaryTimeMemberName:       "time",
		NestedPropertiesMemberName:  "properties",
	}
}

// Validate checks parameter values
func (p Params) Validate() error {
	if !p.SchemaVersion.Valid() {
		return fmt.Errorf("unknown schema version %q", p.SchemaVersion)
	}
	switch p.InlineOrByReferenceDefault {
	case Inline, ByReference, InlineOrByReference:
	default:
		return fmt.Errorf("invalid inlineOrByReferenceDefault %q", p.InlineOrByReferenceDefault)
	}
	for _, t := range p.ObjectIdentifierType {
		if !rules.IsScalarType(t) {
			return fmt.Errorf("objectIdentifierType %q is not a scalar JSON type", t)
		}
	}
	for _, rp := range p.FeatureRefProfiles {
		switch rp {
		case RefAsKey, RefAsURI, RefAsCollectionKey:
		default:
			return fmt.Errorf("unknown feature ref profile %q", rp)
		}
	}
	if p.EntityTypeMemberName == "" {
		return fmt.Errorf("entityTypeMemberName must not be empty")
	}
	if p.ObjectIdentifierName == "" {
		return fmt.Errorf("objectIdentifierName must not be empty")
	}
	return nil
}

// BaseSchema is an external schema that classes of a category virtually generalize
type BaseSchema struct {
	Category     string              `mapstructure:"category" yaml:"category" json:"category" jsonschema:"enum=feature,enum=object,enum=mixin,enum=datatype,enum=union"`
	URI          string              `mapstructure:"uri" yaml:"uri" json:"uri"`
	EncodingInfo *rules.EncodingInfo `mapstructure:"encodingInfo" yaml:"encodingInfo,omitempty" json:"encodingInfo,omitempty"`
}

// CollectionSpec requests a collection schema
type CollectionSpec struct {
	// Name of the collection definition
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	// Schema is the application schema whose document receives the collection; defaults to
	// the schema of the first member
	Schema string `mapstructure:"schema" yaml:"schema,omitempty" json:"schema,omitempty"`
	// Members are class names; empty selects every concrete feature type of Schema
	Members []string `mapstructure:"members" yaml:"members,omitempty" json:"members,omitempty"`
	// ValidateUnknown adds a branch for items of no member type
	ValidateUnknown bool `mapstructure:"validateUnknown" yaml:"validateUnknown,omitempty" json:"validateUnknown,omitempty"`
	// UnknownSchema is referenced by the unknown branch; defaults to any object
	UnknownSchema string `mapstructure:"unknownSchema" yaml:"unknownSchema,omitempty" json:"unknownSchema,omitempty"`
	// Discriminator is a collection-level member naming the type of all items
	Discriminator string `mapstructure:"collectionDiscriminator" yaml:"collectionDiscriminator,omitempty" json:"collectionDiscriminator,omitempty"`
	// ItemsMember holds the items when the collection is a wrapper object
	ItemsMember string `mapstructure:"itemsMember" yaml:"itemsMember,omitempty" json:"itemsMember,omitempty"`
}
