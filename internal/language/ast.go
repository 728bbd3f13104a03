package language

import "github.com/vektah/gqlparser/v2/ast"

type (
	SchemaDocument          = ast.SchemaDocument
	SchemaDefinition        = ast.SchemaDefinition
	OperationTypeDefinition = ast.OperationTypeDefinition
	SelectionSet            = ast.SelectionSet
	Selection               = ast.Selection
	Field                   = ast.Field
	Directive               = ast.Directive
	DirectiveList           = ast.DirectiveList
	DirectiveDefinition     = ast.DirectiveDefinition
	DirectiveLocation       = ast.DirectiveLocation
	ArgumentList            = ast.ArgumentList
	Argument                = ast.Argument
	Value                   = ast.Value
	ChildValue              = ast.ChildValue
	FieldDefinition         = ast.FieldDefinition
	FieldList               = ast.FieldList
	ArgumentDefinition      = ast.ArgumentDefinition
	ArgumentDefinitionList  = ast.ArgumentDefinitionList
	EnumValueDefinition     = ast.EnumValueDefinition
	Type                    = ast.Type
	Definition              = ast.Definition
	DefinitionList          = ast.DefinitionList
	Position                = ast.Position
)

type DefinitionKind = ast.DefinitionKind

type Operation = ast.Operation

type ValueKind = ast.ValueKind

const (
	Query        Operation = ast.Query
	Mutation     Operation = ast.Mutation
	Subscription Operation = ast.Subscription

	Object      DefinitionKind = ast.Object
	Interface   DefinitionKind = ast.Interface
	Union       DefinitionKind = ast.Union
	Scalar      DefinitionKind = ast.Scalar
	Enum        DefinitionKind = ast.Enum
	InputObject DefinitionKind = ast.InputObject

	LocationSchema               DirectiveLocation = ast.LocationSchema
	LocationScalar               DirectiveLocation = ast.LocationScalar
	LocationObject               DirectiveLocation = ast.LocationObject
	LocationFieldDefinition      DirectiveLocation = ast.LocationFieldDefinition
	LocationArgumentDefinition   DirectiveLocation = ast.LocationArgumentDefinition
	LocationInterface            DirectiveLocation = ast.LocationInterface
	LocationUnion                DirectiveLocation = ast.LocationUnion
	LocationEnum                 DirectiveLocation = ast.LocationEnum
	LocationEnumValue            DirectiveLocation = ast.LocationEnumValue
	LocationInputObject          DirectiveLocation = ast.LocationInputObject
	LocationInputFieldDefinition DirectiveLocation = ast.LocationInputFieldDefinition

	IntValue     ValueKind = ast.IntValue
	FloatValue   ValueKind = ast.FloatValue
	StringValue  ValueKind = ast.StringValue
	BlockValue   ValueKind = ast.BlockValue
	BooleanValue ValueKind = ast.BooleanValue
	NullValue    ValueKind = ast.NullValue
	EnumValue    ValueKind = ast.EnumValue
	ListValue    ValueKind = ast.ListValue
	ObjectValue  ValueKind = ast.ObjectValue
)

// NamedType returns a bare named type reference.
func NamedType(name string, pos *Position) *Type { return ast.NamedType(name, pos) }

// NonNullNamedType returns a non-null named type reference.
func NonNullNamedType(name string, pos *Position) *Type { return ast.NonNullNamedType(name, pos) }

// ListType wraps the given element type in a list.
func ListType(elem *Type, pos *Position) *Type { return ast.ListType(elem, pos) }
