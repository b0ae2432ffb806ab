// Package docs registra la especificación swagger generada con swag init.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/extract-from-text": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["extract"],
                "summary": "Extraer eventos de texto libre",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "No text provided"},
                    "500": {"description": "Fallo del oráculo"}
                }
            }
        },
        "/api/extract-from-url": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["extract"],
                "summary": "Extraer eventos de una página web",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "No URL provided"},
                    "500": {"description": "Fallo del oráculo"}
                }
            }
        },
        "/api/extract-from-file": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["extract"],
                "summary": "Extraer eventos de un archivo (documento, imagen o audio)",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Archivo faltante o tipo no soportado"},
                    "500": {"description": "Fallo del oráculo"}
                }
            }
        },
        "/api/generate-calendar": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["text/calendar"],
                "tags": ["calendar"],
                "summary": "Generar un archivo ICS a partir de eventos",
                "responses": {
                    "200": {"description": "Documento ICS"},
                    "400": {"description": "No valid events provided"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Synthical API",
	Description:      "Extrae eventos de texto, URLs y archivos, y genera calendarios ICS.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
